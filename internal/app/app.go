package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/data/db"
	"github.com/yungbote/calaisgraph/internal/observability"
	"github.com/yungbote/calaisgraph/internal/platform/envutil"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

// App owns the process-wide dependencies shared by every command.
type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services

	shutdownOTel func(context.Context) error
}

// New wires logging, tracing, the database, clients and services. The
// database is migrated when Cfg.AutoMigrate is set.
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	theDB, err := db.Open(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	return assemble(log, theDB, cfg, shutdown)
}

func assemble(log *logger.Logger, theDB *gorm.DB, cfg Config, shutdown func(context.Context) error) (*App, error) {
	reposet := wireRepos(theDB, log)
	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset := wireServices(theDB, log, cfg, reposet, clientset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		shutdownOTel: shutdown,
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		a.shutdownOTel = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
