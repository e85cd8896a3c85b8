package main

import (
	"context"
	"fmt"

	"jobflow/internal/adapter/memory"
	"jobflow/internal/adapter/sqldb"
	"jobflow/internal/config"
	"jobflow/internal/domain"
)

// backend is everything the services need from one storage implementation.
type backend interface {
	domain.UserRepository
	domain.JobRepository
	domain.ConnectionRepository
	domain.OutreachRepository
	domain.Pinger
}

type store struct {
	backend
	sessions domain.SessionRepository
	close    func() error
}

func openStore(ctx context.Context, cfg config.StorageConfig) (*store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		db := memory.New()
		return &store{backend: db, sessions: db.NewSessionRepo(), close: func() error { return nil }}, nil
	case config.StorageSQLite:
		db, err := sqldb.Open(ctx, sqldb.SQLite, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return &store{backend: db, sessions: sqldb.NewSessionRepo(db), close: db.Close}, nil
	case config.StoragePostgres:
		db, err := sqldb.Open(ctx, sqldb.Postgres, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &store{backend: db, sessions: sqldb.NewSessionRepo(db), close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// loadConfig loads and validates the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
