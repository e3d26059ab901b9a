package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"

	"github.com/grafixr/site/internal/adapters/http/api"
	"github.com/grafixr/site/internal/adapters/http/site"
	"github.com/grafixr/site/internal/adapters/http/swagger"
	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/adapters/postgres"
	"github.com/grafixr/site/internal/adapters/repository"
	app "github.com/grafixr/site/internal/app"
	"github.com/grafixr/site/internal/config"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Stderr.WriteString("grafixr: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	fs := pflag.NewFlagSet("grafixr", pflag.ContinueOnError)
	fs.StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $GRAFIXR_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, config.WithFile(configPath))
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	files, err := media.NewFileStore(cfg.MediaDir)
	if err != nil {
		_ = store.Close()
		return err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithMediaStore(files),
		app.WithWorkerCount(cfg.MediaWorkerCount),
		app.WithQueueSize(cfg.MediaQueueSize),
		app.WithDeleteAttempts(cfg.MediaDeleteAttempts),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	if cfg.AdminToken == "" {
		log.Warn(ctx, "admin_token is empty; admin API and console are open to anyone")
	}

	handler, err := buildRouter(cfg, svc, files, log)
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("mediaDir", cfg.MediaDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openStore selects Postgres when a database URL is configured.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using in-memory store; data is lost on restart")
		return repository.NewMemStore(), nil
	}
	store, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.WithLogger(log.Named("postgres")))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return store, nil
}

// buildRouter composes the API, the rendered site, the API docs and the
// media file server on one router.
func buildRouter(cfg *config.Config, svc *app.Service, files media.Store, log logger.Logger) (http.Handler, error) {
	limiter := api.NewRateLimiter(cfg.InquiryRatePerMinute, cfg.InquiryBurst, nil)

	pages, err := site.New(svc,
		site.WithAdminToken(cfg.AdminToken),
		site.WithFeaturedCount(cfg.FeaturedCount),
		site.WithRateLimiter(limiter),
		site.WithLogger(log.Named("site")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	r := chi.NewRouter()
	r.Use(api.Recovery(log))
	r.Use(api.RequestLogger(log))
	r.Use(api.BodyLimit(cfg.MaxUploadBytes()))

	api.NewServer(svc, svc,
		api.WithAdminToken(cfg.AdminToken),
		api.WithAllowedOrigins(cfg.AllowedOrigins),
		api.WithRateLimiter(limiter),
		api.WithLogger(log.Named("api")),
	).Register(r)
	swagger.Register(r)
	r.Handle("/uploads/*", media.Handler(files))
	pages.Register(r)
	return r, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes queue and catalog gauges from the service.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats, err := svc.GetStats(ctx)
	if err != nil {
		return
	}
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateWorkerCount(stats.WorkerCount)
	metrics.UpdateItemsTotal(stats.Items)
	metrics.UpdateCategoriesTotal(stats.Categories)
	metrics.UpdateInquiriesTotal(stats.Inquiries)
}
