// Package repository selects and opens the configured user store backend.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/gatekeeper/internal/config"
	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/repository/memory"
	"github.com/msomdec/gatekeeper/internal/repository/postgres"
	"github.com/msomdec/gatekeeper/internal/repository/sqlite"
)

// Store is an opened user store. DB is nil for the volatile memory backend.
type Store struct {
	Users  domain.UserRepository
	DB     domain.Database
	Driver string
}

// Close releases the backend, if it holds any resources.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Open opens the backend named by cfg.StoreDriver and applies its
// migrations.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return &Store{Users: memory.NewUserRepository(), Driver: cfg.StoreDriver}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		slog.Info("sqlite store ready", "path", cfg.DatabasePath)
		return &Store{Users: db.Users(), DB: db, Driver: cfg.StoreDriver}, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		slog.Info("postgres store ready")
		return &Store{Users: db.Users(), DB: db, Driver: cfg.StoreDriver}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
