// seed loads the demo catalogue into DATABASE_URL, skipping products that already exist
// by name, and can print a bcrypt hash for OPERATOR_PASSWORD_HASH.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed hash <password>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"milk-ledger/internal/config"
	"milk-ledger/internal/core"
	"milk-ledger/internal/store/memory"
	"milk-ledger/internal/store/postgres"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		if os.Args[1] != "hash" || len(os.Args) != 3 {
			log.Fatal("Usage: seed [hash <password>]")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		fmt.Println(string(hash))
		return
	}

	cfg := config.Load()
	ctx := context.Background()
	st, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer st.Close()

	err = st.InTx(ctx, func(tx core.Store) error {
		products := core.NewProductService(tx)
		existing, err := tx.ListProducts(ctx)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, p := range existing {
			have[strings.ToLower(p.Name)] = true
		}
		for _, in := range memory.DemoCatalogue {
			if have[strings.ToLower(in.Name)] {
				log.Printf("[SKIP] %s", in.Name)
				continue
			}
			if _, err := products.CreateProduct(ctx, in); err != nil {
				return fmt.Errorf("create %s: %w", in.Name, err)
			}
			log.Printf("[SEED] %s at %s per %s", in.Name, in.DefaultPrice.StringFixed(2), in.Unit)
		}
		return nil
	})
	if err != nil {
		st.Close()
		log.Fatalf("Seed failed: %v", err)
	}
	log.Println("Seed data loaded.")
}
