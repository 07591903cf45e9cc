package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/http/swagger"
	"github.com/okian/podium/internal/adapters/snapshot"
	"github.com/okian/podium/internal/adapters/source"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg)...)
	if err := metrics.RegisterRuntimeCollectors(); err != nil {
		loggerInstance.Warn(ctx, "runtime metrics unavailable", logger.Error(err))
	}

	src, err := newSource(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to configure source", logger.String("source_kind", cfg.SourceKind), logger.Error(err))
		return
	}

	var store *snapshot.Store
	if cfg.SnapshotPath != "" {
		store, err = snapshot.New(cfg.SnapshotPath)
		if err != nil {
			loggerInstance.Error(ctx, "failed to open snapshot store", logger.String("path", cfg.SnapshotPath), logger.Error(err))
			return
		}
		defer func() { _ = store.Close() }()
	}

	// Create and start the service with configuration options
	svc := app.New(serviceOptions(cfg, src, store, loggerInstance)...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	handler, err := newHandler(ctx, cfg, svc, store)
	if err != nil {
		loggerInstance.Error(ctx, "failed to register routes", logger.Error(err))
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("source", src.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// columns maps the configured column names.
func columns(cfg *config.Config) model.Columns {
	return model.Columns{
		Date:     cfg.DateColumn,
		Medal:    cfg.MedalColumn,
		Country:  cfg.CountryColumn,
		Category: cfg.CategoryColumn,
	}
}

// metricsOptions names the service metrics and labels them with the dataset.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(map[string]string{"dataset": cfg.Dataset}),
	}
}

// newSource builds the dataset source selected by source_kind.
func newSource(cfg *config.Config) (source.Source, error) {
	cols := columns(cfg)
	switch cfg.SourceKind {
	case config.SourceCSV:
		return source.NewCSV(cfg.SourcePath, source.WithRequiredColumns(cols.Names()...)), nil
	case config.SourceSQLite:
		return source.NewSQL(source.DriverSQLite, cfg.SourcePath, cfg.SourceTable, cols.Names())
	case config.SourceMySQL:
		return source.NewSQL(source.DriverMySQL, cfg.SourceDSN, cfg.SourceTable, cols.Names())
	default:
		return nil, fmt.Errorf("%w: unknown source_kind %q", config.ErrInvalidConfig, cfg.SourceKind)
	}
}

func serviceOptions(cfg *config.Config, src source.Source, store *snapshot.Store, l logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(l.Named("service")),
		app.WithSource(src),
		app.WithColumns(columns(cfg)),
		app.WithWarmup(cfg.Warmup),
		app.WithDefaults(app.Defaults{
			BarTopN:       cfg.BarTopN,
			StreamTopN:    cfg.StreamTopN,
			WaffleCountry: cfg.WaffleCountry,
			WaffleTopK:    cfg.WaffleTopK,
		}),
	}
	if store != nil && cfg.SnapshotOnReload {
		opts = append(opts, app.WithSnapshotStore(store))
	}
	return opts
}

// newHandler registers the API and OpenAPI routes for svc.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, store *snapshot.Store) (http.Handler, error) {
	d := svc.Defaults()
	opts := []api.Option{
		api.WithMaxLimit(cfg.MaxViewLimit),
		api.WithDefaults(api.Defaults{
			BarTopN:       d.BarTopN,
			StreamTopN:    d.StreamTopN,
			WaffleCountry: d.WaffleCountry,
			WaffleTopK:    d.WaffleTopK,
		}),
	}
	if store != nil {
		opts = append(opts, api.WithSnapshots(store))
	}

	mux := http.NewServeMux()
	if err := swagger.Register(ctx, mux); err != nil {
		return nil, err
	}
	api.NewServer(svc, svc, opts...).Register(mux)
	return mux, nil
}
