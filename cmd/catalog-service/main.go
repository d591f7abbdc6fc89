package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/sequence"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return err
		}
	}

	repo := catalog.NewPostgresRepository(pool)

	// --- AMQP ---
	var pub service.EventPublisher
	if cfg.EventsEnabled() {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{})
		if err != nil {
			return err
		}
		defer publisher.Close()
		pub = publisher
	} else {
		logger.Info("event publishing disabled")
	}

	svc := service.NewCatalog(repo, pub, logger, service.Options{ExportBOM: cfg.ExportBOM})

	// --- HTTP ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := httpapi.NewRouter(httpapi.NewHandler(svc), httpapi.RouterOptions{
		Logger:         logger,
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", slog.String("signal", sig.String()))
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.String("error", err.Error()))
	}

	logger.Info("shutdown complete")
	return runErr
}
