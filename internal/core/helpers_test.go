package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"milk-ledger/internal/core"
	"milk-ledger/internal/store/memory"
)

// testEnv wires every service over a fresh in-memory store.
type testEnv struct {
	ctx       context.Context
	store     *memory.Store
	customers core.CustomerService
	products  core.ProductService
	pricing   core.PricingService
	sales     core.SaleService
	payments  core.PaymentService
	expenses  core.ExpenseService
	ledger    *core.Ledger
	reports   core.ReportingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	return &testEnv{
		ctx:       context.Background(),
		store:     st,
		customers: core.NewCustomerService(st),
		products:  core.NewProductService(st),
		pricing:   core.NewPricingService(st),
		sales:     core.NewSaleService(st),
		payments:  core.NewPaymentService(st),
		expenses:  core.NewExpenseService(st),
		ledger:    core.NewLedger(st),
		reports:   core.NewReportingService(st),
	}
}

func (e *testEnv) customer(t *testing.T, name string) *core.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(e.ctx, core.CustomerInput{Name: name, Address: "Ward 4", Phone: "98000"})
	if err != nil {
		t.Fatalf("CreateCustomer(%s) failed: %v", name, err)
	}
	return c
}

func (e *testEnv) product(t *testing.T, name string, price string) *core.Product {
	t.Helper()
	p, err := e.products.CreateProduct(e.ctx, core.ProductInput{Name: name, Unit: "litre", DefaultPrice: dec(price)})
	if err != nil {
		t.Fatalf("CreateProduct(%s) failed: %v", name, err)
	}
	return p
}

func mustProduct(t *testing.T, e *testEnv, id int) *core.Product {
	t.Helper()
	p, err := e.products.GetProduct(e.ctx, id)
	if err != nil {
		t.Fatalf("GetProduct(%d) failed: %v", id, err)
	}
	return p
}

func (e *testEnv) sale(t *testing.T, customerID, productID int, qty, price, date string) *core.Sale {
	t.Helper()
	s, err := e.sales.RecordOrUpdateSale(e.ctx, core.SaleInput{
		CustomerID:   customerID,
		ProductID:    productID,
		Quantity:     dec(qty),
		PricePerUnit: dec(price),
		Date:         day(t, date),
	})
	if err != nil {
		t.Fatalf("RecordOrUpdateSale failed: %v", err)
	}
	return s
}

func (e *testEnv) payment(t *testing.T, customerID int, amount, date string) *core.Payment {
	t.Helper()
	p, err := e.payments.RecordPayment(e.ctx, core.PaymentInput{CustomerID: customerID, Amount: dec(amount), Date: day(t, date)})
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	return p
}

func (e *testEnv) dueAsOf(t *testing.T, customerID int, date string) decimal.Decimal {
	t.Helper()
	due, err := e.ledger.TotalDueAsOf(e.ctx, customerID, day(t, date))
	if err != nil {
		t.Fatalf("TotalDueAsOf(%s) failed: %v", date, err)
	}
	return due
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", label, want, got)
	}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) && field != "" && ve.Field != field {
		t.Errorf("expected validation error on %q, got %q", field, ve.Field)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
