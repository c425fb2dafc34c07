/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fuel revenue engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + FUEL_* environment)
  2. Build the logger
  3. Open the SQLite store
  4. Load the rate schedule (file or built-in)
  5. Wire metrics, the recompute driver and the API handler
  6. Start the recompute scheduler
  7. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (default: ./config.yaml if present)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the recompute scheduler (an in-flight run stops between months)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with defaults
  ./server

  # Run with in-memory database
  FUEL_DATABASE_PATH=":memory:" ./server

  # Recompute every 15 minutes with a custom schedule
  FUEL_RECOMPUTE_INTERVAL=15m FUEL_SCHEDULE_PATH=rates.yaml ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasb/fuel-revenue-engine/api"
	"github.com/kasb/fuel-revenue-engine/config"
	"github.com/kasb/fuel-revenue-engine/factory"
	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/logger"
	"github.com/kasb/fuel-revenue-engine/metrics"
	"github.com/kasb/fuel-revenue-engine/store/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	schedule := fuel.DefaultSchedule()
	if cfg.Schedule.Path != "" {
		schedule, err = factory.LoadSchedule(cfg.Schedule.Path)
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		log.Info("rate schedule loaded", zap.String("path", cfg.Schedule.Path))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	driver := fuel.NewDriver(fuel.NewEngine(schedule), store,
		fuel.WithLogger(log),
		fuel.WithObserver(recorder),
		fuel.WithRunStore(store),
	)

	handler := api.NewHandler(store, driver)
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         log,
		AllowedOrigins: cfg.HTTP.CORSAllowOrigins,
		Metrics:        recorder.Handler(),
	})

	scheduler := api.NewRecomputeScheduler(driver, log)
	scheduler.Interval = cfg.Recompute.Interval
	scheduler.RunOnStart = cfg.Recompute.OnStartup
	if cfg.Recompute.Interval > 0 {
		scheduler.Start()
	} else if cfg.Recompute.OnStartup {
		scheduler.RunNow(context.Background())
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
