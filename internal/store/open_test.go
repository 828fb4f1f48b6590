package store

import (
	"context"
	"testing"

	"milk-ledger/internal/config"
	"milk-ledger/internal/store/memory"
)

func TestOpenWithoutDatabaseUsesMemory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", s)
	}
	products, err := s.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("expected the 3 demo products, got %d", len(products))
	}
}

func TestOpenRejectsBadDatabaseURL(t *testing.T) {
	_, _, err := Open(context.Background(), config.Config{DatabaseURL: "::not a url::"})
	if err == nil {
		t.Fatal("expected an error for an unparsable database URL")
	}
}
