package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tutorconnect/internal/app"
	"tutorconnect/internal/config"
	"tutorconnect/internal/migrations"
	"tutorconnect/internal/scheduling"
	"tutorconnect/internal/store/memory"
	"tutorconnect/internal/store/postgres"
)

// deps are the pieces every command needs: validated config, a logger and
// the configured store.
type deps struct {
	cfg    config.App
	logger *zap.Logger
	loc    *time.Location
	pool   *pgxpool.Pool
	store  scheduling.Store
}

func setup(ctx context.Context) (*deps, error) {
	cfg, loadedEnv := config.Load()
	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if loadedEnv {
		logger.Debug("Loaded .env file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg, logger: logger, loc: loc}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		d.store = memory.New()
	default:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.pool = pool
		d.store = postgres.New(pool)
		logger.Info("Connected to database")
	}
	return d, nil
}

func (d *deps) migrate(ctx context.Context) (int64, error) {
	if d.pool == nil {
		return 0, fmt.Errorf("migrations need the %s backend", config.BackendPostgres)
	}
	m, err := migrations.NewMigrator(d.pool, d.logger)
	if err != nil {
		return 0, err
	}
	defer m.Close()
	if err := m.Up(ctx); err != nil {
		return 0, err
	}
	return m.Version(ctx)
}

func (d *deps) service() *scheduling.Service {
	return scheduling.NewService(d.store, scheduling.Options{Location: d.loc, Logger: d.logger})
}

func (d *deps) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
	_ = d.logger.Sync()
}
