package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/alharis/haris/internal/haris/common/clock"
	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/config"
	"github.com/alharis/haris/internal/haris/gateways/fetcher"
	"github.com/alharis/haris/internal/haris/gateways/httpapi"
	"github.com/alharis/haris/internal/haris/registry"
	"github.com/alharis/haris/internal/haris/repos/blocklist"
	"github.com/alharis/haris/internal/haris/repos/blocklist/bloom"
	"github.com/alharis/haris/internal/haris/repos/blocklist/bolt"
	"github.com/alharis/haris/internal/haris/repos/blocklist/lru"
	"github.com/alharis/haris/internal/haris/repos/prefs"
	"github.com/alharis/haris/internal/haris/services/matcher"
	"github.com/alharis/haris/internal/haris/services/parental"
	"github.com/alharis/haris/internal/haris/services/refresh"
)

const (
	version = "0.1.0-dev"
	appName = "harisd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the blocklist service.
type Application struct {
	config    *config.AppConfig
	refresher *refresh.Refresher
	server    *httpapi.Server
	prefs     *prefs.Repository
	persister blocklist.Persister
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":          version,
		"env":              cfg.Env,
		"log_level":        cfg.LogLevel,
		"http_addr":        cfg.HTTPAddr,
		"refresh_interval": cfg.RefreshInterval.String(),
		"registry_file":    cfg.RegistryFile,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (app *Application, err error) {
	logger := log.GetLogger()
	clk := clock.RealClock{}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	log.Info(map[string]any{
		"mandatory": reg.Mandatory(),
		"optional":  reg.Optional(),
	}, "Category registry loaded")

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create match cache: %w", err)
	}
	store := blocklist.NewStore(cache, logger)
	factory := bloom.NewFactory()

	var persister blocklist.Persister
	if cfg.SnapshotDB != "" {
		persister, err = bolt.New(cfg.SnapshotDB, factory, cfg.BloomFPRate)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot db %s: %w", cfg.SnapshotDB, err)
		}
		defer func() {
			if err != nil {
				_ = persister.Close()
			}
		}()
	}

	prefsRepo, err := prefs.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences db: %w", err)
	}
	defer func() {
		if err != nil {
			_ = prefsRepo.Close()
		}
	}()

	f := fetcher.New(fetcher.Options{
		Timeout:   cfg.FetchTimeout,
		MaxSize:   cfg.FetchMaxSize,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})

	refresher, err := refresh.New(refresh.Options{
		Registry:     reg,
		Fetcher:      f,
		Store:        store,
		Persister:    persister,
		BloomFactory: factory,
		FPRate:       cfg.BloomFPRate,
		Interval:     cfg.RefreshInterval,
		Ceiling:      cfg.RefreshCeiling,
		Concurrency:  cfg.FetchConcurrency,
		Clock:        clk,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create refresher: %w", err)
	}

	engine := matcher.New(store, reg, logger)

	svc := parental.New(parental.Options{
		Preferences: prefsRepo,
		Catalog:     reg,
		Decider:     engine,
		Status:      refresher,
		Logger:      logger,
	})

	server := httpapi.New(httpapi.Config{
		Addr:    cfg.HTTPAddr,
		Service: svc,
		Refresher: httpapi.RefreshFunc(func(ctx context.Context) (uint64, error) {
			snap, err := refresher.Refresh(ctx)
			if err != nil {
				return 0, err
			}
			return snap.Version, nil
		}),
		Logger: logger,
	})

	return &Application{
		config:    cfg,
		refresher: refresher,
		server:    server,
		prefs:     prefsRepo,
		persister: persister,
	}, nil
}

func loadRegistry(cfg *config.AppConfig) (*registry.Registry, error) {
	if cfg.RegistryFile == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadFile(cfg.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry file: %w", err)
	}
	return reg, nil
}

// Run performs the first refresh, serves the API and blocks until ctx is
// cancelled.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if err := app.refresher.Bootstrap(ctx, app.config.StartupTimeout); err != nil {
		log.Warn(map[string]any{"error": err}, "Initial refresh incomplete")
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		app.refresher.Run(ctx)
	}()

	if err := app.server.Start(); err != nil {
		stop()
		<-loopDone
		return multierr.Append(err, app.close())
	}

	<-ctx.Done()
	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	err := app.server.Shutdown(shutdownCtx)

	select {
	case <-loopDone:
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "Shutdown timeout exceeded")
		return multierr.Append(err, fmt.Errorf("shutdown timeout"))
	}

	err = multierr.Append(err, app.close())
	if err == nil {
		log.Info(nil, "Graceful shutdown completed")
	}
	return err
}

func (app *Application) close() error {
	err := app.prefs.Close()
	if app.persister != nil {
		err = multierr.Append(err, app.persister.Close())
	}
	return err
}
