package main

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/config"
	"employee-export/internal/core/domain"
	"employee-export/internal/core/usecases"
	"employee-export/internal/shell/executor"
	httpShell "employee-export/internal/shell/http"
	"employee-export/internal/shell/messaging"
	"employee-export/internal/shell/scheduler"
	"employee-export/internal/shell/storage"
)

// encryptedEmployeeFields are stored AES-GCM sealed when a key is configured.
var encryptedEmployeeFields = []string{"email", "phoneNumber"}

// stores holds the job and record stores plus whatever must be closed on exit.
type stores struct {
	jobs      usecases.ExportJobRepository
	employees usecases.EmployeeRepository
	closers   []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warnf("Error closing store: %v", err)
		}
	}
}

func buildStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	seed, err := loadSeed(cfg.Export.SeedFile)
	if err != nil {
		return nil, err
	}

	transforms := storage.FieldTransforms{}
	if len(cfg.Export.EncryptionKey) > 0 {
		transforms, err = storage.NewAESFieldTransforms(cfg.Export.EncryptionKey, encryptedEmployeeFields...)
		if err != nil {
			return nil, err
		}
	}

	s := &stores{}
	switch cfg.Database.Type {
	case config.StorageMemory:
		s.jobs = storage.NewMemoryExportJobRepository()
		s.employees = storage.NewMemoryEmployeeRepository(seed...)

	case config.StorageSQLite:
		repo, err := storage.NewSQLiteExportJobRepository(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite database: %w", err)
		}
		s.jobs = repo
		s.closers = append(s.closers, repo.Close)

		employees, err := storage.NewSQLiteEmployeeRepository(repo.DB(), transforms)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := employees.SeedEmployees(ctx, seed); err != nil {
			s.Close()
			return nil, err
		}
		s.employees = employees

	case config.StoragePostgres:
		db, err := storage.OpenPostgres(cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)

		if err := storage.RunPostgresMigrations(db); err != nil {
			s.Close()
			return nil, err
		}
		s.jobs = storage.NewPostgresExportJobRepository(db)

		employees := storage.NewPostgresEmployeeRepository(db, transforms)
		if err := employees.SeedEmployees(ctx, seed); err != nil {
			s.Close()
			return nil, err
		}
		s.employees = employees

	case config.StorageRedis:
		client, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.jobs = storage.NewRedisExportJobRepository(client, cfg.Redis.KeyPrefix)
		s.employees = storage.NewMemoryEmployeeRepository(seed...)

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Database.Type)
	}

	log.Infof("Job store initialized (%s)", cfg.Database.Type)
	return s, nil
}

func loadSeed(path string) ([]domain.Employee, error) {
	if path == "" {
		return nil, nil
	}
	return storage.LoadEmployeesFromFile(path)
}

// buildNotifier returns the completion notifier and a function releasing it.
func buildNotifier(cfg *config.Config) (executor.ExportCompletionNotifier, func() error, error) {
	switch cfg.NotifierImpl {
	case config.NotifierKafka:
		log.Infof("Kafka producer config - brokers: %v, topic: %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		producer, err := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Kafka producer: %w", err)
		}
		return executor.NewKafkaExportCompletionNotifier(producer), producer.Close, nil
	case config.NotifierNull:
		log.Infof("Using null notifier (no completion events will be sent)")
		return executor.NewNullExportCompletionNotifier(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notifier: %s", cfg.NotifierImpl)
	}
}

// exportApp is the running pipeline: service, workers, sweeper and routes.
type exportApp struct {
	service *usecases.ExportService
	pool    *executor.WorkerPool
	sweeper *scheduler.PendingSweeper
	router  http.Handler
}

func newExportApp(cfg *config.Config, s *stores, notifier executor.ExportCompletionNotifier) *exportApp {
	filter := usecases.NewRecordFilter(s.employees, cfg.Export.MaxPageSize)
	encoders := usecases.NewEncoderRegistry()

	jobExecutor := executor.NewExportJobExecutor(s.jobs, filter, encoders, notifier)
	pool := executor.NewWorkerPool(jobExecutor, cfg.Worker.Count, cfg.Worker.QueueSize)
	service := usecases.NewExportService(s.jobs, pool)

	return &exportApp{
		service: service,
		pool:    pool,
		sweeper: scheduler.NewPendingSweeper(s.jobs, pool, cfg.Worker.SweepSchedule),
		router:  httpShell.SetupRoutes(service, encoders),
	}
}

// start recovers interrupted jobs and re-queues pending ones before any
// worker runs.
func (a *exportApp) start(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return err
	}
	a.pool.Start(ctx)
	return nil
}

func (a *exportApp) stop(ctx context.Context) error {
	a.sweeper.Stop()
	return a.pool.Stop(ctx)
}

// newPrivateServer serves health and metrics on the private port.
func newPrivateServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.PrivatePort),
		Handler:      httpShell.SetupPrivateRoutes(cfg.Metrics.Path),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
