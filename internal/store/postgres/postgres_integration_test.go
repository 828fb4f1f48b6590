package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"milk-ledger/internal/core"
	"milk-ledger/internal/db"
	"milk-ledger/internal/store/postgres"
	"milk-ledger/migrations"
)

func setupTestDB(t *testing.T) *postgres.Store {
	_ = godotenv.Load("../../../.env")

	// Use a dedicated TEST database; every run truncates the ledger tables.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	st, err := postgres.Open(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := db.Migrate(ctx, st.Pool(), migrations.FS); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	_, err = st.Pool().Exec(ctx, `
		TRUNCATE TABLE daily_sales, payments, expenses, customer_products, products, customers RESTART IDENTITY CASCADE;

		INSERT INTO customers (name, address) VALUES
		('Asha', 'Ward 4'),
		('Bala', 'Ward 7');

		INSERT INTO products (name, unit, default_price) VALUES
		('Cow Milk', 'litre', 60.00),
		('Curd',     'kg',    90.00);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return st
}

func date(s string) time.Time {
	d, _ := core.ParseDate(s)
	return d
}

func TestPostgres_SaleUpsertAndDues(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()
	sales := core.NewSaleService(st)
	payments := core.NewPaymentService(st)
	ledger := core.NewLedger(st)
	reports := core.NewReportingService(st)

	in := core.SaleInput{CustomerID: 1, ProductID: 1, Quantity: decimal.NewFromInt(2), PricePerUnit: decimal.NewFromInt(60), Date: date("2023-10-27")}
	first, err := sales.RecordOrUpdateSale(ctx, in)
	if err != nil {
		t.Fatalf("RecordOrUpdateSale failed: %v", err)
	}
	in.Quantity = decimal.NewFromInt(3)
	second, err := sales.RecordOrUpdateSale(ctx, in)
	if err != nil {
		t.Fatalf("RecordOrUpdateSale failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected upsert to keep id %d, got %d", first.ID, second.ID)
	}
	if !second.TotalAmount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected total 180, got %s", second.TotalAmount)
	}
	if !second.SaleDate.Equal(date("2023-10-27")) {
		t.Errorf("expected sale date 2023-10-27, got %s", second.SaleDate)
	}

	if _, err := payments.RecordPayment(ctx, core.PaymentInput{CustomerID: 1, Amount: decimal.NewFromInt(50), Date: date("2023-10-28")}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	due, err := ledger.TotalDueAsOf(ctx, 1, date("2023-10-31"))
	if err != nil {
		t.Fatalf("TotalDueAsOf failed: %v", err)
	}
	if !due.Equal(decimal.NewFromInt(130)) {
		t.Errorf("expected due 130, got %s", due)
	}

	t.Run("bulk dues match the per-customer query", func(t *testing.T) {
		dues, err := ledger.TotalDueForAllActiveCustomers(ctx, date("2023-10-27"), core.AllDues)
		if err != nil {
			t.Fatalf("TotalDueForAllActiveCustomers failed: %v", err)
		}
		if len(dues) != 2 {
			t.Fatalf("expected 2 customers, got %d", len(dues))
		}
		if !dues[0].Due.Equal(decimal.NewFromInt(180)) || !dues[1].Due.IsZero() {
			t.Errorf("unexpected dues %+v", dues)
		}
	})

	t.Run("period summary closes on the running balance", func(t *testing.T) {
		sum, err := reports.PeriodSummary(ctx, 1, date("2023-10-28"), date("2023-10-31"))
		if err != nil {
			t.Fatalf("PeriodSummary failed: %v", err)
		}
		if !sum.OpeningBalance.Equal(decimal.NewFromInt(180)) {
			t.Errorf("expected opening 180, got %s", sum.OpeningBalance)
		}
		if !sum.ClosingBalance.Equal(due) {
			t.Errorf("expected closing %s, got %s", due, sum.ClosingBalance)
		}
	})

	t.Run("move onto an occupied date", func(t *testing.T) {
		other, err := sales.RecordOrUpdateSale(ctx, core.SaleInput{CustomerID: 1, ProductID: 1, Quantity: decimal.NewFromInt(1), PricePerUnit: decimal.NewFromInt(60), Date: date("2023-10-29")})
		if err != nil {
			t.Fatalf("RecordOrUpdateSale failed: %v", err)
		}
		if _, err := sales.MoveSale(ctx, other.ID, date("2023-10-27")); err != nil {
			t.Fatalf("MoveSale failed: %v", err)
		}
		list, err := sales.ListSales(ctx, core.SaleFilter{CustomerID: 1})
		if err != nil {
			t.Fatalf("ListSales failed: %v", err)
		}
		if len(list) != 1 || !list[0].Quantity.Equal(decimal.NewFromInt(1)) {
			t.Errorf("expected the moved values at 2023-10-27, got %+v", list)
		}
	})
}

func TestPostgres_PropagateAndRollback(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()
	pricing := core.NewPricingService(st)

	if _, err := pricing.SaveAssignments(ctx, 1, []core.AssignmentInput{
		{ProductID: 1, CustomPrice: decimal.NewFromInt(58), DefaultQuantity: decimal.NewFromInt(1)},
		{ProductID: 2, CustomPrice: decimal.NewFromInt(85), DefaultQuantity: decimal.NewFromInt(1)},
	}); err != nil {
		t.Fatalf("SaveAssignments failed: %v", err)
	}
	if _, err := pricing.AssignProduct(ctx, 2, 1, decimal.NewFromInt(62), decimal.NewFromInt(2)); err != nil {
		t.Fatalf("AssignProduct failed: %v", err)
	}

	n, err := pricing.PropagateDefaultPriceChange(ctx, 1, decimal.NewFromInt(75), true)
	if err != nil {
		t.Fatalf("PropagateDefaultPriceChange failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 assignments overwritten, got %d", n)
	}
	curd, _ := pricing.ResolveEffectivePrice(ctx, 1, 2)
	if !curd.Equal(decimal.NewFromInt(85)) {
		t.Errorf("other product must keep its price, got %s", curd)
	}

	_, err = pricing.SaveAssignments(ctx, 2, []core.AssignmentInput{
		{ProductID: 2, CustomPrice: decimal.NewFromInt(80), DefaultQuantity: decimal.NewFromInt(1)},
		{ProductID: 999, CustomPrice: decimal.NewFromInt(1), DefaultQuantity: decimal.NewFromInt(1)},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if a, _ := st.GetAssignment(ctx, 2, 2); a != nil {
		t.Error("failed batch must not leave assignments behind")
	}
}

func TestPostgres_FractionalSaleRoundTrip(t *testing.T) {
	st := setupTestDB(t)
	ctx := context.Background()
	sales := core.NewSaleService(st)
	pricing := core.NewPricingService(st)
	ledger := core.NewLedger(st)

	in := core.SaleInput{
		CustomerID:   1,
		ProductID:    1,
		Quantity:     decimal.RequireFromString("1.375"),
		PricePerUnit: decimal.RequireFromString("61.75"),
		Date:         date("2023-10-02"),
	}
	saved, err := sales.RecordOrUpdateSale(ctx, in)
	if err != nil {
		t.Fatalf("RecordOrUpdateSale failed: %v", err)
	}
	if !saved.TotalAmount.Equal(saved.Quantity.Mul(saved.PricePerUnit)) {
		t.Errorf("stored total %s != %s x %s", saved.TotalAmount, saved.Quantity, saved.PricePerUnit)
	}

	found, err := sales.FindSale(ctx, 1, 1, date("2023-10-02"))
	if err != nil || found == nil {
		t.Fatalf("FindSale failed: %v", err)
	}
	if !found.Quantity.Equal(in.Quantity) || !found.PricePerUnit.Equal(in.PricePerUnit) {
		t.Errorf("expected %s x %s read back, got %s x %s", in.Quantity, in.PricePerUnit, found.Quantity, found.PricePerUnit)
	}
	if !found.TotalAmount.Equal(decimal.RequireFromString("84.90625")) {
		t.Errorf("expected total 84.90625, got %s", found.TotalAmount)
	}

	due, err := ledger.TotalDueAsOf(ctx, 1, date("2023-10-31"))
	if err != nil {
		t.Fatalf("TotalDueAsOf failed: %v", err)
	}
	if !due.Equal(found.TotalAmount) {
		t.Errorf("expected due %s, got %s", found.TotalAmount, due)
	}

	t.Run("sub-cent price is rejected before storage", func(t *testing.T) {
		_, err := sales.RecordOrUpdateSale(ctx, core.SaleInput{
			CustomerID:   1,
			ProductID:    1,
			Quantity:     decimal.NewFromInt(3),
			PricePerUnit: decimal.RequireFromString("10.005"),
			Date:         date("2023-10-03"),
		})
		if !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		s, err := sales.FindSale(ctx, 1, 1, date("2023-10-03"))
		if err != nil {
			t.Fatalf("FindSale failed: %v", err)
		}
		if s != nil {
			t.Errorf("rejected sale was stored: %+v", s)
		}
	})

	t.Run("sub-cent custom price is rejected", func(t *testing.T) {
		_, err := pricing.AssignProduct(ctx, 1, 1, decimal.RequireFromString("59.995"), decimal.NewFromInt(1))
		if !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
