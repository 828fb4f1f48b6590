// Package store picks the core.Store implementation for a process: PostgreSQL when a
// database URL is configured, otherwise the seeded in-memory store.
package store

import (
	"context"
	"fmt"
	"log"

	"milk-ledger/internal/config"
	"milk-ledger/internal/core"
	"milk-ledger/internal/db"
	"milk-ledger/internal/store/memory"
	"milk-ledger/internal/store/postgres"
	"milk-ledger/migrations"
)

// Open returns the configured store and a close function for it.
func Open(ctx context.Context, cfg config.Config) (core.Store, func() error, error) {
	if cfg.DatabaseURL == "" {
		log.Println("[STORE] DATABASE_URL not set, using in-memory store with demo catalogue")
		return memory.NewSeeded(), func() error { return nil }, nil
	}

	pg, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pg.Pool(), migrations.FS); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Println("[STORE] connected to PostgreSQL")
	return pg, pg.Close, nil
}
