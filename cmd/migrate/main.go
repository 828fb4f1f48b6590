// migrate applies the embedded schema migrations to DATABASE_URL and exits.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"log"

	"milk-ledger/internal/config"
	"milk-ledger/internal/db"
	"milk-ledger/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		log.Fatalf("[MIGRATE] %v", err)
	}
	log.Println("[DONE] All migrations processed.")
}
