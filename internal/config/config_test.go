package config

import (
	"os"
	"strings"
	"testing"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"
)

var configEnvVars = []string{
	"PORT", "PRIVATE_PORT", "METRICS_PORT", "DB_TYPE", "DB_PATH", "DB_HOST",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "WORKER_COUNT", "WORKER_QUEUE_SIZE",
	"WORKER_SWEEP_SCHEDULE", "EXPORT_MAX_PAGE_SIZE", "EXPORT_ENCRYPTION_KEY",
	"EMPLOYEE_SEED_FILE", "EXPORT_COMPLETION_NOTIFIER_IMPL", "LOG_LEVEL", "LOG_FORMAT",
}

// clearConfigEnv unsets every variable LoadConfig reads and restores them afterwards.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadConfig(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 8000 {
		t.Errorf("Expected default port 8000, got %d", config.Server.Port)
	}
	if config.Database.Type != StorageMemory {
		t.Errorf("Expected default job store 'memory', got %s", config.Database.Type)
	}
	if config.Worker.Count != 2 {
		t.Errorf("Expected 2 workers by default, got %d", config.Worker.Count)
	}
	if config.Worker.QueueSize != 100 {
		t.Errorf("Expected queue size 100 by default, got %d", config.Worker.QueueSize)
	}
	if config.Worker.SweepSchedule != "@every 1m" {
		t.Errorf("Expected default sweep schedule '@every 1m', got %s", config.Worker.SweepSchedule)
	}
	if config.Export.MaxPageSize != 10000 {
		t.Errorf("Expected max page size 10000, got %d", config.Export.MaxPageSize)
	}
	if len(config.Export.EncryptionKey) != 0 {
		t.Error("Expected no encryption key by default")
	}
	if config.Kafka.Enabled {
		t.Error("Expected Kafka to be disabled by default")
	}
	if config.NotifierImpl != NotifierNull {
		t.Errorf("Expected null notifier by default, got %s", config.NotifierImpl)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %s", config.Logging.Level)
	}
}

func TestLoadConfigWithEnvironmentVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", "/tmp/exports.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("WORKER_QUEUE_SIZE", "500")
	t.Setenv("EXPORT_MAX_PAGE_SIZE", "250")
	t.Setenv("EXPORT_ENCRYPTION_KEY", "MDEyMzQ1Njc4OWFiY2RlZg==")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", config.Server.Port)
	}
	if config.Database.Type != StorageSQLite || config.Database.Path != "/tmp/exports.db" {
		t.Errorf("Expected sqlite at /tmp/exports.db, got %s at %s", config.Database.Type, config.Database.Path)
	}
	if !config.Kafka.Enabled || len(config.Kafka.Brokers) != 2 {
		t.Errorf("Expected 2 Kafka brokers, got %v", config.Kafka.Brokers)
	}
	if config.NotifierImpl != NotifierKafka {
		t.Errorf("Expected kafka notifier when brokers are set, got %s", config.NotifierImpl)
	}
	if config.Worker.Count != 8 || config.Worker.QueueSize != 500 {
		t.Errorf("Unexpected worker config %+v", config.Worker)
	}
	if config.Export.MaxPageSize != 250 {
		t.Errorf("Expected max page size 250, got %d", config.Export.MaxPageSize)
	}
	if string(config.Export.EncryptionKey) != "0123456789abcdef" {
		t.Errorf("Unexpected decoded key %q", config.Export.EncryptionKey)
	}
}

func TestLoadConfigRejectsBadKey(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("EXPORT_ENCRYPTION_KEY", "%%%")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for non-base64 key")
	}
}

func validConfig() *Config {
	return &Config{
		Server:       ServerConfig{Port: 8000, PrivatePort: 9090},
		Database:     DatabaseConfig{Type: StorageMemory},
		Metrics:      MetricsConfig{Port: 8080},
		Worker:       WorkerConfig{Count: 2, QueueSize: 100, SweepSchedule: "@every 1m"},
		Export:       ExportConfig{MaxPageSize: 10000},
		NotifierImpl: NotifierNull,
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{
			name:        "invalid server port",
			modify:      func(c *Config) { c.Server.Port = 0 },
			expectError: "invalid server port",
		},
		{
			name:        "unknown job store",
			modify:      func(c *Config) { c.Database.Type = "mysql" },
			expectError: "unsupported database type",
		},
		{
			name:        "sqlite without path",
			modify:      func(c *Config) { c.Database.Type = StorageSQLite },
			expectError: "database path is required",
		},
		{
			name:        "postgres without host",
			modify:      func(c *Config) { c.Database.Type = StoragePostgres },
			expectError: "database host is required",
		},
		{
			name:        "zero workers",
			modify:      func(c *Config) { c.Worker.Count = 0 },
			expectError: "worker count",
		},
		{
			name:        "zero queue",
			modify:      func(c *Config) { c.Worker.QueueSize = 0 },
			expectError: "queue size",
		},
		{
			name:        "bad key length",
			modify:      func(c *Config) { c.Export.EncryptionKey = []byte("short") },
			expectError: "encryption key",
		},
		{
			name:        "kafka notifier without brokers",
			modify:      func(c *Config) { c.NotifierImpl = NotifierKafka },
			expectError: "kafka brokers are required",
		},
		{
			name:        "unknown notifier",
			modify:      func(c *Config) { c.NotifierImpl = "email" },
			expectError: "unsupported notifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(config)

			err := config.Validate()
			if tt.expectError == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Expected error containing %q, got nil", tt.expectError)
			} else if !strings.Contains(err.Error(), tt.expectError) {
				t.Errorf("Expected error containing %q, got %q", tt.expectError, err.Error())
			}
		})
	}
}

func TestEnvironmentVariableParsing(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_SLICE", "a,b,c")

	if v := getEnvAsInt("TEST_INT", 0); v != 42 {
		t.Errorf("Expected 42, got %d", v)
	}
	if v := getEnvAsInt("TEST_BAD_INT", 7); v != 7 {
		t.Errorf("Expected fallback 7, got %d", v)
	}
	if v := getEnvAsDuration("TEST_DURATION", time.Second); v != 90*time.Second {
		t.Errorf("Expected 90s, got %v", v)
	}
	if v := getEnvAsStringSlice("TEST_SLICE", nil); len(v) != 3 {
		t.Errorf("Expected 3 elements, got %v", v)
	}
}

func TestClowderIntegration(t *testing.T) {
	port := 8000
	privatePort := 9999
	redisPassword := "redis_pass"
	mockClowder := &clowder.AppConfig{
		PublicPort:  &port,
		PrivatePort: &privatePort,
		MetricsPort: 9000,
		MetricsPath: "/prometheus",
		Database: &clowder.DatabaseConfig{
			Hostname: "postgres.example.com",
			Port:     5432,
			Name:     "clowder_db",
			Username: "clowder_user",
			Password: "clowder_pass",
			SslMode:  "require",
		},
		InMemoryDb: &clowder.InMemoryDBConfig{
			Hostname: "redis.example.com",
			Port:     6379,
			Password: &redisPassword,
		},
		Kafka: &clowder.KafkaConfig{
			Brokers: []clowder.BrokerConfig{
				{Hostname: "kafka1.example.com", Port: intPtr(9092)},
			},
			Topics: []clowder.TopicConfig{
				{Name: "platform.export.completions-abc", RequestedName: "platform.export.completions"},
			},
		},
	}

	serverConfig := loadServerConfig(mockClowder)
	if serverConfig.PrivatePort != 9999 {
		t.Errorf("Expected private port 9999, got %d", serverConfig.PrivatePort)
	}

	dbConfig := loadDatabaseConfig(mockClowder)
	if dbConfig.Type != StoragePostgres || dbConfig.Host != "postgres.example.com" {
		t.Errorf("Expected postgres at postgres.example.com, got %s at %s", dbConfig.Type, dbConfig.Host)
	}

	redisConfig := loadRedisConfig(mockClowder)
	if redisConfig.Addr != "redis.example.com:6379" || redisConfig.Password != "redis_pass" {
		t.Errorf("Unexpected redis config %+v", redisConfig)
	}

	kafkaConfig := loadKafkaConfig(mockClowder)
	if !kafkaConfig.Enabled || kafkaConfig.Brokers[0] != "kafka1.example.com:9092" {
		t.Errorf("Unexpected kafka config %+v", kafkaConfig)
	}
	if kafkaConfig.Topic != "platform.export.completions-abc" {
		t.Errorf("Expected the Clowder topic name, got %s", kafkaConfig.Topic)
	}

	metricsConfig := loadMetricsConfig(mockClowder)
	if metricsConfig.Port != 9000 || metricsConfig.Path != "/prometheus" {
		t.Errorf("Unexpected metrics config %+v", metricsConfig)
	}
}

func intPtr(i int) *int {
	return &i
}
