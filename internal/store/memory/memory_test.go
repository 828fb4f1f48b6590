package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"milk-ledger/internal/core"
	"milk-ledger/internal/store/memory"
)

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	boom := errors.New("boom")
	err := st.InTx(ctx, func(tx core.Store) error {
		if _, err := tx.CreateCustomer(ctx, core.CustomerInput{Name: "Asha"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	customers, _ := st.ListCustomers(ctx, false)
	if len(customers) != 0 {
		t.Fatalf("expected rollback, found %d customers", len(customers))
	}

	// Ids handed out inside a rolled back transaction are reused, like a fresh sequence.
	c, _ := st.CreateCustomer(ctx, core.CustomerInput{Name: "Bala"})
	if c.ID != 1 {
		t.Errorf("expected id 1, got %d", c.ID)
	}
}

func TestStore_NestedTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	err := st.InTx(ctx, func(tx core.Store) error {
		return tx.InTx(ctx, func(inner core.Store) error {
			_, err := inner.CreateProduct(ctx, core.ProductInput{Name: "Cow Milk", Unit: "litre", DefaultPrice: decimal.NewFromInt(60)})
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested InTx failed: %v", err)
	}
	products, _ := st.ListProducts(ctx)
	if len(products) != 1 {
		t.Errorf("expected 1 product, got %d", len(products))
	}
}

func TestStore_UpsertSaleKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	c, _ := st.CreateCustomer(ctx, core.CustomerInput{Name: "Asha"})
	p, _ := st.CreateProduct(ctx, core.ProductInput{Name: "Cow Milk", Unit: "litre", DefaultPrice: decimal.NewFromInt(60)})

	// Times within the same calendar day share one key.
	morning := time.Date(2023, 10, 27, 6, 30, 0, 0, time.UTC)
	evening := time.Date(2023, 10, 27, 19, 0, 0, 0, time.UTC)

	first, err := st.UpsertSale(ctx, core.Sale{CustomerID: c.ID, ProductID: p.ID, Quantity: decimal.NewFromInt(2), PricePerUnit: decimal.NewFromInt(60), TotalAmount: decimal.NewFromInt(120), SaleDate: morning})
	if err != nil {
		t.Fatalf("UpsertSale failed: %v", err)
	}
	second, err := st.UpsertSale(ctx, core.Sale{CustomerID: c.ID, ProductID: p.ID, Quantity: decimal.NewFromInt(3), PricePerUnit: decimal.NewFromInt(60), TotalAmount: decimal.NewFromInt(180), SaleDate: evening})
	if err != nil {
		t.Fatalf("UpsertSale failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same id, got %d and %d", first.ID, second.ID)
	}

	total, _ := st.SumSales(ctx, c.ID, core.UpTo(morning))
	if !total.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected 180, got %s", total)
	}

	_, err = st.UpsertSale(ctx, core.Sale{CustomerID: 99, ProductID: p.ID, SaleDate: morning})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found for unknown customer, got %v", err)
	}
}

func TestStore_DeleteProductCascades(t *testing.T) {
	ctx := context.Background()
	st := memory.NewSeeded()
	products, _ := st.ListProducts(ctx)
	if len(products) == 0 {
		t.Fatal("expected seeded catalogue")
	}
	p := products[0]
	c, _ := st.CreateCustomer(ctx, core.CustomerInput{Name: "Asha"})
	if _, err := st.UpsertAssignment(ctx, core.CustomerProduct{CustomerID: c.ID, ProductID: p.ID, CustomPrice: p.DefaultPrice, DefaultQuantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("UpsertAssignment failed: %v", err)
	}
	if _, err := st.UpsertSale(ctx, core.Sale{CustomerID: c.ID, ProductID: p.ID, SaleDate: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("UpsertSale failed: %v", err)
	}

	if err := st.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if a, _ := st.GetAssignment(ctx, c.ID, p.ID); a != nil {
		t.Error("assignment should be gone")
	}
	sales, _ := st.ListSales(ctx, core.SaleFilter{})
	if len(sales) != 0 {
		t.Errorf("expected sales to cascade, got %d", len(sales))
	}
}
