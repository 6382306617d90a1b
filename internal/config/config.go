package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"
	log "github.com/sirupsen/logrus"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"

	NotifierKafka = "kafka"
	NotifierNull  = "null"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (with Clowder integration)
	Server ServerConfig `json:"server"`

	// Database configuration (uses Clowder when available)
	Database DatabaseConfig `json:"database"`

	// Redis configuration (uses Clowder in-memory DB when available)
	Redis RedisConfig `json:"redis"`

	// Kafka configuration (uses Clowder when available)
	Kafka KafkaConfig `json:"kafka"`

	// Metrics configuration (uses Clowder when available)
	Metrics MetricsConfig `json:"metrics"`

	Worker  WorkerConfig  `json:"worker"`
	Export  ExportConfig  `json:"export"`
	Logging LoggingConfig `json:"logging"`

	NotifierImpl string
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Port is the main HTTP server port
	Port int `json:"port"`

	// PrivatePort is the port for internal/admin endpoints
	PrivatePort int `json:"private_port"`

	// Host is the server bind address
	Host string `json:"host"`

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// ShutdownTimeout for graceful shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig contains job store connection settings
type DatabaseConfig struct {
	// Type of job store (memory, sqlite, postgres, redis)
	Type string `json:"type"`

	// Path to SQLite database file
	Path string `json:"path"`

	// Host for postgres
	Host string `json:"host"`

	// Port for postgres
	Port int `json:"port"`

	// Name of the database
	Name string `json:"name"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication
	Password string `json:"password"`

	// SSLMode for database connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConnections for connection pooling
	MaxOpenConnections int `json:"max_open_connections"`

	// MaxIdleConnections for connection pooling
	MaxIdleConnections int `json:"max_idle_connections"`

	// ConnectionMaxLifetime for connection recycling
	ConnectionMaxLifetime time.Duration `json:"connection_max_lifetime"`
}

// ConnectionString returns a PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// KafkaConfig contains Kafka connection settings
type KafkaConfig struct {
	// Enabled indicates if Kafka integration is active
	Enabled bool `json:"enabled"`

	// Brokers is a list of Kafka broker addresses
	Brokers []string `json:"brokers"`

	// Topic for export completion messages
	Topic string `json:"topic"`

	// ClientID for Kafka producer identification
	ClientID string `json:"client_id"`
}

// MetricsConfig contains metrics and monitoring settings
type MetricsConfig struct {
	// Port for metrics endpoint
	Port int `json:"port"`

	// Path for metrics endpoint
	Path string `json:"path"`

	// Enabled indicates if metrics are active
	Enabled bool `json:"enabled"`
}

// WorkerConfig sizes the background export workers
type WorkerConfig struct {
	// Count is the number of concurrent export workers
	Count int `json:"count"`

	// QueueSize bounds the number of exports waiting for a worker
	QueueSize int `json:"queue_size"`

	// SweepSchedule is the cron spec for re-queueing PENDING exports
	SweepSchedule string `json:"sweep_schedule"`
}

// ExportConfig contains record source and export limits
type ExportConfig struct {
	// MaxPageSize caps the page size used by the default selection
	MaxPageSize int `json:"max_page_size"`

	// EncryptionKey is the AES key for sensitive record fields (base64, 16/24/32 bytes)
	EncryptionKey []byte `json:"-"`

	// SeedFile is a JSON array of employees loaded at start-up
	SeedFile string `json:"seed_file"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// LoadConfig loads configuration from app-common-go (Clowder) with fallback to environment variables
func LoadConfig() (*Config, error) {
	var clowderConfig *clowder.AppConfig

	// Try to load Clowder configuration first
	if clowder.IsClowderEnabled() {
		log.Info("Clowder configuration detected")

		clowderConfig = clowder.LoadedConfig
		if clowderConfig == nil {
			return nil, fmt.Errorf("failed to load Clowder configuration (nil)")
		}
	}

	config := &Config{}

	config.Server = loadServerConfig(clowderConfig)
	config.Database = loadDatabaseConfig(clowderConfig)
	config.Redis = loadRedisConfig(clowderConfig)
	config.Kafka = loadKafkaConfig(clowderConfig)
	config.Metrics = loadMetricsConfig(clowderConfig)
	config.Worker = loadWorkerConfig()

	export, err := loadExportConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Export = export

	config.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}

	defaultNotifier := NotifierNull
	if config.Kafka.Enabled {
		defaultNotifier = NotifierKafka
	}
	config.NotifierImpl = getEnv("EXPORT_COMPLETION_NOTIFIER_IMPL", defaultNotifier)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadServerConfig loads server configuration with Clowder integration
func loadServerConfig(clowderConfig *clowder.AppConfig) ServerConfig {
	port := getEnvAsInt("PORT", 8000)
	privatePort := getEnvAsInt("PRIVATE_PORT", 9090)
	host := getEnv("HOST", "0.0.0.0")

	if clowderConfig != nil {
		if clowderConfig.PublicPort != nil {
			port = *clowderConfig.PublicPort
		}
		if clowderConfig.PrivatePort != nil {
			privatePort = *clowderConfig.PrivatePort
		}
	}

	return ServerConfig{
		Port:            port,
		PrivatePort:     privatePort,
		Host:            host,
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// loadDatabaseConfig loads database configuration with Clowder integration
func loadDatabaseConfig(clowderConfig *clowder.AppConfig) DatabaseConfig {
	dbType := getEnv("DB_TYPE", StorageMemory)
	dbPath := getEnv("DB_PATH", "./exports.db")
	host := getEnv("DB_HOST", "localhost")
	port := getEnvAsInt("DB_PORT", 5432)
	name := getEnv("DB_NAME", "employee_export")
	username := getEnv("DB_USERNAME", "")
	password := getEnv("DB_PASSWORD", "")
	sslMode := getEnv("DB_SSL_MODE", "disable")

	// Clowder always provides PostgreSQL
	if clowderConfig != nil && clowderConfig.Database != nil {
		dbType = StoragePostgres
		host = clowderConfig.Database.Hostname
		port = clowderConfig.Database.Port
		name = clowderConfig.Database.Name
		username = clowderConfig.Database.Username
		password = clowderConfig.Database.Password
		sslMode = clowderConfig.Database.SslMode
	}

	return DatabaseConfig{
		Type:                  dbType,
		Path:                  dbPath,
		Host:                  host,
		Port:                  port,
		Name:                  name,
		Username:              username,
		Password:              password,
		SSLMode:               sslMode,
		MaxOpenConnections:    getEnvAsInt("DB_MAX_OPEN_CONNECTIONS", 25),
		MaxIdleConnections:    getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
		ConnectionMaxLifetime: getEnvAsDuration("DB_CONNECTION_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadRedisConfig(clowderConfig *clowder.AppConfig) RedisConfig {
	cfg := RedisConfig{
		Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        getEnvAsInt("REDIS_DB", 0),
		KeyPrefix: getEnv("REDIS_KEY_PREFIX", "employee-export:"),
	}

	if clowderConfig != nil && clowderConfig.InMemoryDb != nil {
		cfg.Addr = fmt.Sprintf("%s:%d", clowderConfig.InMemoryDb.Hostname, clowderConfig.InMemoryDb.Port)
		if clowderConfig.InMemoryDb.Password != nil {
			cfg.Password = *clowderConfig.InMemoryDb.Password
		}
	}
	return cfg
}

// loadKafkaConfig loads Kafka configuration with Clowder integration
func loadKafkaConfig(clowderConfig *clowder.AppConfig) KafkaConfig {
	brokers := getEnvAsStringSlice("KAFKA_BROKERS", []string{})
	topic := getEnv("KAFKA_TOPIC", "platform.export.completions")
	enabled := len(brokers) > 0

	if clowderConfig != nil && clowderConfig.Kafka != nil {
		enabled = true
		brokers = []string{}

		for _, broker := range clowderConfig.Kafka.Brokers {
			brokers = append(brokers, fmt.Sprintf("%s:%d", broker.Hostname, *broker.Port))
		}

		for _, topicConfig := range clowderConfig.Kafka.Topics {
			if topicConfig.RequestedName == topic || topicConfig.Name == topic {
				topic = topicConfig.Name
				break
			}
		}
	}

	return KafkaConfig{
		Enabled:  enabled,
		Brokers:  brokers,
		Topic:    topic,
		ClientID: getEnv("KAFKA_CLIENT_ID", "employee-export"),
	}
}

// loadMetricsConfig loads metrics configuration with Clowder integration
func loadMetricsConfig(clowderConfig *clowder.AppConfig) MetricsConfig {
	port := getEnvAsInt("METRICS_PORT", 8080)
	path := getEnv("METRICS_PATH", "/metrics")

	if clowderConfig != nil {
		port = clowderConfig.MetricsPort
		path = clowderConfig.MetricsPath
	}

	return MetricsConfig{
		Port:    port,
		Path:    path,
		Enabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

func loadWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Count:         getEnvAsInt("WORKER_COUNT", 2),
		QueueSize:     getEnvAsInt("WORKER_QUEUE_SIZE", 100),
		SweepSchedule: getEnv("WORKER_SWEEP_SCHEDULE", "@every 1m"),
	}
}

func loadExportConfig() (ExportConfig, error) {
	cfg := ExportConfig{
		MaxPageSize: getEnvAsInt("EXPORT_MAX_PAGE_SIZE", 10000),
		SeedFile:    getEnv("EMPLOYEE_SEED_FILE", ""),
	}

	if raw := getEnv("EXPORT_ENCRYPTION_KEY", ""); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return ExportConfig{}, fmt.Errorf("EXPORT_ENCRYPTION_KEY is not valid base64: %w", err)
		}
		cfg.EncryptionKey = key
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	if c.Server.PrivatePort < 1 || c.Server.PrivatePort > 65535 {
		return fmt.Errorf("invalid private port: %d", c.Server.PrivatePort)
	}

	switch c.Database.Type {
	case StorageMemory:
	case StorageSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for SQLite")
		}
	case StoragePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for postgres")
		}
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis job store")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Worker.Count)
	}
	if c.Worker.QueueSize < 1 {
		return fmt.Errorf("worker queue size must be at least 1, got %d", c.Worker.QueueSize)
	}
	if c.Worker.SweepSchedule == "" {
		return fmt.Errorf("worker sweep schedule is required")
	}

	if c.Export.MaxPageSize < 1 {
		return fmt.Errorf("export max page size must be at least 1, got %d", c.Export.MaxPageSize)
	}
	if n := len(c.Export.EncryptionKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("encryption key must be 16, 24 or 32 bytes, got %d", n)
	}

	switch c.NotifierImpl {
	case NotifierNull:
	case NotifierKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required for the kafka notifier")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required for the kafka notifier")
		}
	default:
		return fmt.Errorf("unsupported notifier: %q", c.NotifierImpl)
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
