package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/config"
	"employee-export/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	log.Infof("Starting employee export service with configuration:")
	log.Infof("  Server: %s:%d (private %d)", cfg.Server.Host, cfg.Server.Port, cfg.Server.PrivatePort)
	log.Infof("  Job store: %s", cfg.Database.Type)
	log.Infof("  Workers: %d (queue %d, sweep %s)", cfg.Worker.Count, cfg.Worker.QueueSize, cfg.Worker.SweepSchedule)
	log.Infof("  Kafka: enabled=%t, brokers=%v", cfg.Kafka.Enabled, cfg.Kafka.Brokers)
	log.Infof("  Metrics: enabled=%t, port=%d", cfg.Metrics.Enabled, cfg.Metrics.Port)
	log.Infof("  Field encryption: %t", len(cfg.Export.EncryptionKey) > 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := buildStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer stores.Close()

	notifier, closeNotifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Warnf("Error closing notifier: %v", err)
		}
	}()

	app := newExportApp(cfg, stores, notifier)
	if err := app.start(ctx); err != nil {
		log.Fatalf("Failed to start export workers: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: metricsMux,
		}

		go func() {
			log.Infof("Starting metrics server on %s%s", metricsServer.Addr, cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	privateServer := newPrivateServer(cfg)
	go func() {
		log.Infof("Starting private server on %s", privateServer.Addr)
		if err := privateServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Private server error: %v", err)
		}
	}()

	go func() {
		log.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	if err := app.stop(shutdownCtx); err != nil {
		log.Warnf("Export workers did not finish before shutdown: %v", err)
	}
	if err := privateServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Private server forced to shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Metrics server forced to shutdown: %v", err)
		}
	}

	log.Info("Server exited")
}
