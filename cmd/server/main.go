package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/caredata/internal/config"
	"github.com/JonMunkholm/caredata/internal/core"
	"github.com/JonMunkholm/caredata/internal/logging"
	"github.com/JonMunkholm/caredata/internal/metrics"
	"github.com/JonMunkholm/caredata/internal/store"
	"github.com/JonMunkholm/caredata/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	opts := []core.Option{core.WithWriteWait(cfg.Writer.MaxWait)}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.New(cfg.Metrics.Namespace, reg)
		opts = append(opts, core.WithRecorder(collector))
	}

	// Optional reporting mirror
	var journalStore *store.Store
	if cfg.Database.MirrorEnabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		st := store.New(pool)
		if err := st.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithMirror(st), core.WithJournal(st))
		journalStore = st
		slog.Info("database mirror enabled")
	}

	paths := core.Paths{
		Hospitals:  cfg.Data.HospitalsPath(),
		Providers:  cfg.Data.ProvidersPath(),
		Patients:   cfg.Data.PatientsPath(),
		Treatments: cfg.Data.TreatmentsPath(),
	}
	service := core.NewService(paths, opts...)

	// Fail fast on unreadable or malformed files
	ds, err := service.Refresh(ctx)
	if err != nil {
		slog.Error("initial load failed", "error", err, "data_dir", cfg.Data.Dir)
		os.Exit(1)
	}
	slog.Info("records loaded",
		"hospitals", len(ds.Hospitals),
		"providers", len(ds.Providers),
		"patients", len(ds.Patients),
		"treatments", len(ds.Treatments),
		"rejected", len(ds.Rejected),
	)

	// Journal retention runs until shutdown
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	if journalStore != nil {
		go service.StartJournalPruner(bgCtx, journalStore, core.PruneConfig{
			Retention: cfg.Journal.Retention,
			Interval:  cfg.Journal.PruneInterval,
		})
	}

	server := web.NewServer(service, cfg, collector)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stopBackground()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// A treatment save in flight must finish before exit
		if service.WriterBusy() {
			slog.Info("waiting for treatment write to complete")
			if err := service.WaitForWrites(shutdownCtx); err != nil {
				slog.Warn("treatment write did not complete in time", "error", err)
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
