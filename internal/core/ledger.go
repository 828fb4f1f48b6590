package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DueEpsilon is half a minor currency unit. Balances whose magnitude is below it are
// reported as settled.
var DueEpsilon = decimal.New(5, -3)

// IsSettled reports whether a balance is zero for reporting purposes.
func IsSettled(due decimal.Decimal) bool {
	return due.Abs().LessThan(DueEpsilon)
}

// DueFilter selects which customers TotalDueForAllActiveCustomers returns.
type DueFilter int

const (
	// AllDues returns every active customer, whatever their balance.
	AllDues DueFilter = iota
	// OutstandingDues returns only customers who owe money (balance of at least DueEpsilon).
	OutstandingDues
)

// LedgerService derives running balances from stored sales and payments. Nothing is
// cached: every call recomputes from the event rows.
type LedgerService interface {
	// TotalDueAsOf is Σ sales − Σ payments for the customer, both bounded by day inclusive.
	TotalDueAsOf(ctx context.Context, customerID int, day time.Time) (decimal.Decimal, error)

	// TotalDueForAllActiveCustomers applies TotalDueAsOf to every active customer.
	TotalDueForAllActiveCustomers(ctx context.Context, day time.Time, filter DueFilter) ([]CustomerDue, error)
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) TotalDueAsOf(ctx context.Context, customerID int, day time.Time) (decimal.Decimal, error) {
	if day.IsZero() {
		return decimal.Zero, invalid("date", "is required")
	}
	if _, err := l.store.GetCustomer(ctx, customerID); err != nil {
		return decimal.Zero, err
	}
	return dueAsOf(ctx, l.store, customerID, day)
}

func dueAsOf(ctx context.Context, st Store, customerID int, day time.Time) (decimal.Decimal, error) {
	r := UpTo(day)
	sales, err := st.SumSales(ctx, customerID, r)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sales for customer %d: %w", customerID, err)
	}
	payments, err := st.SumPayments(ctx, customerID, r)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments for customer %d: %w", customerID, err)
	}
	return sales.Sub(payments), nil
}

func (l *Ledger) TotalDueForAllActiveCustomers(ctx context.Context, day time.Time, filter DueFilter) ([]CustomerDue, error) {
	if day.IsZero() {
		return nil, invalid("date", "is required")
	}
	dues, err := l.store.DuesAsOf(ctx, Day(day))
	if err != nil {
		return nil, fmt.Errorf("dues as of %s: %w", day.Format(DateLayout), err)
	}
	if filter == AllDues {
		return dues, nil
	}

	out := dues[:0]
	for _, d := range dues {
		if d.Due.GreaterThanOrEqual(DueEpsilon) {
			out = append(out, d)
		}
	}
	return out, nil
}
