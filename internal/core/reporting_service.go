package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService turns the point-in-time ledger into calendar-bounded reports.
// Every range is inclusive at both ends.
type ReportingService interface {
	// PeriodSummary returns opening balance (due as of the day before start), period sales,
	// period payments, period due and closing balance for one customer.
	PeriodSummary(ctx context.Context, customerID int, start, end time.Time) (*PeriodSummary, error)

	// AggregatePeriodSummary runs PeriodSummary for every active customer and adds the
	// business-wide totals: sales of all customers, expenses and net profit.
	AggregatePeriodSummary(ctx context.Context, start, end time.Time) (*AggregateSummary, error)

	// CustomersWithDues returns the aggregate rows whose closing balance is not settled.
	CustomersWithDues(ctx context.Context, start, end time.Time) ([]PeriodSummary, error)

	// CustomerStatement returns the summary together with the sale and payment lines of
	// the period, for statement rendering.
	CustomerStatement(ctx context.Context, customerID int, start, end time.Time) (*Statement, error)

	// BackupSnapshot reads customers, products and one month's sales, payments and
	// expenses from a single consistent view.
	BackupSnapshot(ctx context.Context, year, month int) (*Snapshot, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type reportingService struct {
	store Store
}

// NewReportingService constructs a ReportingService backed by the given store.
func NewReportingService(store Store) ReportingService {
	return &reportingService{store: store}
}

func checkRange(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start", "is required")
	}
	if end.IsZero() {
		return invalid("end", "is required")
	}
	if Day(start).After(Day(end)) {
		return invalid("start", "must not be after end")
	}
	return nil
}

// summarize computes the summary for a customer already known to exist.
func summarize(ctx context.Context, st Store, c Customer, start, end time.Time) (*PeriodSummary, error) {
	start, end = Day(start), Day(end)

	opening, err := dueAsOf(ctx, st, c.ID, dayBefore(start))
	if err != nil {
		return nil, err
	}
	r := Between(start, end)
	sales, err := st.SumSales(ctx, c.ID, r)
	if err != nil {
		return nil, fmt.Errorf("period sales for customer %d: %w", c.ID, err)
	}
	payments, err := st.SumPayments(ctx, c.ID, r)
	if err != nil {
		return nil, fmt.Errorf("period payments for customer %d: %w", c.ID, err)
	}

	periodDue := sales.Sub(payments)
	return &PeriodSummary{
		CustomerID:     c.ID,
		CustomerName:   c.Name,
		Start:          start,
		End:            end,
		OpeningBalance: opening,
		PeriodSales:    sales,
		PeriodPayments: payments,
		PeriodDue:      periodDue,
		ClosingBalance: opening.Add(periodDue),
	}, nil
}

// ── PeriodSummary ─────────────────────────────────────────────────────────────

func (s *reportingService) PeriodSummary(ctx context.Context, customerID int, start, end time.Time) (*PeriodSummary, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.store, *c, start, end)
}

// ── AggregatePeriodSummary ────────────────────────────────────────────────────

func (s *reportingService) AggregatePeriodSummary(ctx context.Context, start, end time.Time) (*AggregateSummary, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	start, end = Day(start), Day(end)

	var report *AggregateSummary
	err := s.store.ReadSnapshot(ctx, func(tx Store) error {
		customers, err := tx.ListCustomers(ctx, true)
		if err != nil {
			return fmt.Errorf("list active customers: %w", err)
		}

		report = &AggregateSummary{Start: start, End: end, Customers: make([]PeriodSummary, 0, len(customers))}
		for _, c := range customers {
			sum, err := summarize(ctx, tx, c, start, end)
			if err != nil {
				return err
			}
			report.Customers = append(report.Customers, *sum)
			report.TotalOpening = report.TotalOpening.Add(sum.OpeningBalance)
			report.TotalClosing = report.TotalClosing.Add(sum.ClosingBalance)
		}

		// Business-wide figures include deactivated customers: their deliveries were still sold.
		r := Between(start, end)
		if report.TotalSales, err = tx.SumSales(ctx, 0, r); err != nil {
			return fmt.Errorf("total sales: %w", err)
		}
		if report.TotalPayments, err = tx.SumPayments(ctx, 0, r); err != nil {
			return fmt.Errorf("total payments: %w", err)
		}
		if report.TotalExpenses, err = tx.SumExpenses(ctx, r); err != nil {
			return fmt.Errorf("total expenses: %w", err)
		}
		report.NetProfit = report.TotalSales.Sub(report.TotalExpenses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ── CustomersWithDues ─────────────────────────────────────────────────────────

func (s *reportingService) CustomersWithDues(ctx context.Context, start, end time.Time) ([]PeriodSummary, error) {
	report, err := s.AggregatePeriodSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	var out []PeriodSummary
	for _, sum := range report.Customers {
		if !IsSettled(sum.ClosingBalance) {
			out = append(out, sum)
		}
	}
	return out, nil
}

// ── CustomerStatement ─────────────────────────────────────────────────────────

func (s *reportingService) CustomerStatement(ctx context.Context, customerID int, start, end time.Time) (*Statement, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	var stmt *Statement
	err := s.store.ReadSnapshot(ctx, func(tx Store) error {
		c, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		sum, err := summarize(ctx, tx, *c, start, end)
		if err != nil {
			return err
		}
		r := Between(start, end)
		sales, err := tx.ListSales(ctx, SaleFilter{CustomerID: customerID, Range: r})
		if err != nil {
			return fmt.Errorf("statement sales: %w", err)
		}
		payments, err := tx.ListPayments(ctx, PaymentFilter{CustomerID: customerID, Range: r})
		if err != nil {
			return fmt.Errorf("statement payments: %w", err)
		}
		stmt = &Statement{Customer: *c, Summary: *sum, Sales: sales, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// ── BackupSnapshot ────────────────────────────────────────────────────────────

func (s *reportingService) BackupSnapshot(ctx context.Context, year, month int) (*Snapshot, error) {
	if month < 1 || month > 12 {
		return nil, invalid("month", "must be between 1 and 12")
	}
	start, end := MonthRange(year, month)
	r := Between(start, end)

	snap := &Snapshot{ID: uuid.NewString(), TakenAt: time.Now().UTC(), Year: year, Month: month}
	err := s.store.ReadSnapshot(ctx, func(tx Store) error {
		var err error
		if snap.Customers, err = tx.ListCustomers(ctx, false); err != nil {
			return fmt.Errorf("snapshot customers: %w", err)
		}
		if snap.Products, err = tx.ListProducts(ctx); err != nil {
			return fmt.Errorf("snapshot products: %w", err)
		}
		if snap.Sales, err = tx.ListSales(ctx, SaleFilter{Range: r}); err != nil {
			return fmt.Errorf("snapshot sales: %w", err)
		}
		if snap.Payments, err = tx.ListPayments(ctx, PaymentFilter{Range: r}); err != nil {
			return fmt.Errorf("snapshot payments: %w", err)
		}
		if snap.Expenses, err = tx.ListExpenses(ctx, r); err != nil {
			return fmt.Errorf("snapshot expenses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SumSales adds up the total amounts of a list of sale lines.
func SumSales(sales []Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.TotalAmount)
	}
	return total
}

// SumPayments adds up the amounts of a list of payments.
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}
