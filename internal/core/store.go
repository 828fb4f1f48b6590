package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the storage gateway every service is built on. Implementations live in
// internal/store/postgres and internal/store/memory.
//
// Lookups of a single row return a *NotFoundError when the row is missing, except
// FindSale and GetAssignment which return (nil, nil) so callers can branch on absence.
type Store interface {
	// InTx runs fn inside one transaction. If fn returns an error nothing it did is kept.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// ReadSnapshot runs fn against a consistent read-only view of the data.
	ReadSnapshot(ctx context.Context, fn func(tx Store) error) error

	// Customers
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error)
	SetCustomerActive(ctx context.Context, id int, active bool) error
	DeleteCustomer(ctx context.Context, id int) error
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	ListCustomers(ctx context.Context, activeOnly bool) ([]Customer, error)

	// Products
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int, name, unit string) (*Product, error)
	SetDefaultPrice(ctx context.Context, id int, price decimal.Decimal) error
	DeleteProduct(ctx context.Context, id int) error
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	// Customer product assignments
	UpsertAssignment(ctx context.Context, a CustomerProduct) (*CustomerProduct, error)
	GetAssignment(ctx context.Context, customerID, productID int) (*CustomerProduct, error)
	ListAssignments(ctx context.Context, customerID int) ([]CustomerProduct, error)
	DeleteAssignment(ctx context.Context, customerID, productID int) error
	// SetCustomPrices overwrites custom_price on every assignment of productID and
	// returns how many rows changed.
	SetCustomPrices(ctx context.Context, productID int, price decimal.Decimal) (int, error)

	// Sales
	FindSale(ctx context.Context, customerID, productID int, day time.Time) (*Sale, error)
	GetSale(ctx context.Context, id int) (*Sale, error)
	// UpsertSale inserts the sale or, when one exists for (customer, product, date),
	// overwrites its quantity, price and total in place keeping its id.
	UpsertSale(ctx context.Context, s Sale) (*Sale, error)
	DeleteSale(ctx context.Context, id int) error
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// Payments
	CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error)
	GetPayment(ctx context.Context, id int) (*Payment, error)
	DeletePayment(ctx context.Context, id int) error
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)

	// Expenses
	CreateExpense(ctx context.Context, in ExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, id int) error
	ListExpenses(ctx context.Context, r DateRange) ([]Expense, error)

	// Aggregates. A customerID of 0 sums over every customer. Empty sums are zero.
	SumSales(ctx context.Context, customerID int, r DateRange) (decimal.Decimal, error)
	SumPayments(ctx context.Context, customerID int, r DateRange) (decimal.Decimal, error)
	SumExpenses(ctx context.Context, r DateRange) (decimal.Decimal, error)
	// DuesAsOf returns the running balance of every active customer as of day,
	// ordered by customer name.
	DuesAsOf(ctx context.Context, day time.Time) ([]CustomerDue, error)

	Close() error
}
