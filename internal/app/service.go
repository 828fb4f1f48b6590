package app

import (
	"context"

	"milk-ledger/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Dates cross this boundary as YYYY-MM-DD strings. Where a date is optional, an empty
// string means today.
type ApplicationService interface {
	// ── Customers ─────────────────────────────────────────────────────────────
	CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error)
	GetCustomer(ctx context.Context, id int) (*core.Customer, error)
	ListCustomers(ctx context.Context, includeInactive bool) (*CustomerListResult, error)
	DeactivateCustomer(ctx context.Context, id int) error
	ReactivateCustomer(ctx context.Context, id int) error
	// DeleteCustomer removes the customer with all of their history.
	DeleteCustomer(ctx context.Context, id int) error

	// ── Products and pricing ──────────────────────────────────────────────────
	CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error)
	UpdateProduct(ctx context.Context, id int, req ProductRequest) (*core.Product, error)
	ListProducts(ctx context.Context) (*ProductListResult, error)
	DeleteProduct(ctx context.Context, id int) error

	// ChangeDefaultPrice updates a product's default price. Overwriting customer prices
	// needs both ApplyToCustomers and Confirm; ApplyToCustomers alone is rejected.
	ChangeDefaultPrice(ctx context.Context, req PriceChangeRequest) (*PriceChangeResult, error)

	ListAssignments(ctx context.Context, customerID int) (*AssignmentListResult, error)
	SaveAssignments(ctx context.Context, customerID int, reqs []AssignmentRequest) (*AssignmentListResult, error)
	RemoveAssignment(ctx context.Context, customerID, productID int) error
	// ResolvePrice returns the unit price a new sale for the pair would start from.
	ResolvePrice(ctx context.Context, customerID, productID int) (*PriceResult, error)

	// ── Sales ─────────────────────────────────────────────────────────────────
	// RecordSale records or amends the delivery for (customer, product, date). When
	// PricePerUnit is omitted the effective price is resolved.
	RecordSale(ctx context.Context, req SaleRequest) (*core.Sale, error)
	MoveSale(ctx context.Context, saleID int, newDate string) (*core.Sale, error)
	DeleteSale(ctx context.Context, saleID int) error
	ListSales(ctx context.Context, q LedgerQuery) (*SaleListResult, error)
	// RecordDefaultDeliveries records the standing orders of every active customer for a day.
	RecordDefaultDeliveries(ctx context.Context, date string) (*SaleListResult, error)

	// ── Payments and expenses ─────────────────────────────────────────────────
	RecordPayment(ctx context.Context, req PaymentRequest) (*core.Payment, error)
	DeletePayment(ctx context.Context, id int) error
	ListPayments(ctx context.Context, q LedgerQuery) (*PaymentListResult, error)
	RecordExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error)
	DeleteExpense(ctx context.Context, id int) error
	ListExpenses(ctx context.Context, from, to string) (*ExpenseListResult, error)

	// ── Ledger and reports ────────────────────────────────────────────────────
	GetCustomerDue(ctx context.Context, customerID int, asOf string) (*DueResult, error)
	// GetDues returns every active customer's balance; outstandingOnly drops settled ones.
	GetDues(ctx context.Context, asOf string, outstandingOnly bool) (*DuesResult, error)
	GetPeriodSummary(ctx context.Context, customerID int, from, to string) (*core.PeriodSummary, error)
	GetAggregateSummary(ctx context.Context, from, to string) (*core.AggregateSummary, error)
	GetCustomersWithDues(ctx context.Context, from, to string) (*DuesReportResult, error)
	GetCustomerStatement(ctx context.Context, customerID int, from, to string) (*core.Statement, error)
	GetMonthlySnapshot(ctx context.Context, year, month int) (*core.Snapshot, error)

	// ── Assistant ─────────────────────────────────────────────────────────────
	// InterpretNote turns a free-text delivery or payment note into a proposed entry, or a
	// clarification when names cannot be matched. Nothing is recorded.
	InterpretNote(ctx context.Context, note string) (*AIResult, error)
	// CommitProposal records a previously proposed entry.
	// Must only be called after explicit operator approval.
	CommitProposal(ctx context.Context, p ProposedEntry) (*CommitResult, error)

	// ── Auth ──────────────────────────────────────────────────────────────────
	// AuthenticateOperator verifies credentials and returns a session on success.
	AuthenticateOperator(ctx context.Context, username, password string) (*OperatorSession, error)
}
