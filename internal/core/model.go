package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a household on a delivery route. Customers are deactivated rather than
// deleted; an inactive customer's sales and payments still count toward dues.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is an item in the central catalogue (e.g. cow milk, sold per litre).
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CustomerProduct is a customer's subscription to a product with a negotiated price.
// ProductName and Unit are filled by list queries for display only.
type CustomerProduct struct {
	CustomerID      int             `json:"customer_id"`
	ProductID       int             `json:"product_id"`
	CustomPrice     decimal.Decimal `json:"custom_price"`
	DefaultQuantity decimal.Decimal `json:"default_quantity"`
	ProductName     string          `json:"product_name,omitempty"`
	Unit            string          `json:"unit,omitempty"`
}

// Sale is one delivery line. PricePerUnit is a snapshot taken when the sale was recorded,
// so later catalogue changes never alter it.
type Sale struct {
	ID           int             `json:"id"`
	CustomerID   int             `json:"customer_id"`
	ProductID    int             `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SaleDate     time.Time       `json:"sale_date"`
}

type Payment struct {
	ID          int             `json:"id"`
	CustomerID  int             `json:"customer_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
	Notes       string          `json:"notes"`
}

// Expense is a business-wide cost. It feeds profit reporting and never touches dues.
type Expense struct {
	ID          int             `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Note        string          `json:"note"`
	ExpenseDate time.Time       `json:"expense_date"`
}

// CustomerDue is a customer's running balance as of a date.
type CustomerDue struct {
	CustomerID int             `json:"customer_id"`
	Name       string          `json:"name"`
	Due        decimal.Decimal `json:"due"`
}

// PeriodSummary windows a customer's ledger into [Start, End].
// ClosingBalance always equals the total due as of End.
type PeriodSummary struct {
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	PeriodSales    decimal.Decimal `json:"period_sales"`
	PeriodPayments decimal.Decimal `json:"period_payments"`
	PeriodDue      decimal.Decimal `json:"period_due"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// AggregateSummary is the business-wide view of a period.
type AggregateSummary struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Customers     []PeriodSummary `json:"customers"`
	TotalOpening  decimal.Decimal `json:"total_opening"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	TotalClosing  decimal.Decimal `json:"total_closing"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

// Statement is what a statement renderer receives: the summary plus the line items that
// make it up. The lines always sum to PeriodSales and PeriodPayments.
type Statement struct {
	Customer Customer      `json:"customer"`
	Summary  PeriodSummary `json:"summary"`
	Sales    []Sale        `json:"sales"`
	Payments []Payment     `json:"payments"`
}

// Snapshot is the data set handed to backup export.
type Snapshot struct {
	ID        string     `json:"id"`
	TakenAt   time.Time  `json:"taken_at"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Customers []Customer `json:"customers"`
	Products  []Product  `json:"products"`
	Sales     []Sale     `json:"sales"`
	Payments  []Payment  `json:"payments"`
	Expenses  []Expense  `json:"expenses"`
}

// ── Inputs ────────────────────────────────────────────────────────────────────

type CustomerInput struct {
	Name    string
	Address string
	Phone   string
}

type ProductInput struct {
	Name         string
	Unit         string
	DefaultPrice decimal.Decimal
}

// AssignmentInput is one row of a bulk assignment save.
type AssignmentInput struct {
	ProductID       int
	CustomPrice     decimal.Decimal
	DefaultQuantity decimal.Decimal
}

// SaleInput identifies a sale by (CustomerID, ProductID, Date) and carries the values to store.
type SaleInput struct {
	CustomerID   int
	ProductID    int
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Date         time.Time
}

type PaymentInput struct {
	CustomerID int
	Amount     decimal.Decimal
	Date       time.Time
	Notes      string
}

type ExpenseInput struct {
	Amount   decimal.Decimal
	Category string
	Note     string
	Date     time.Time
}

// SaleFilter narrows ListSales. Zero fields are unbounded.
type SaleFilter struct {
	CustomerID int
	ProductID  int
	Range      DateRange
}

// PaymentFilter narrows ListPayments. Zero fields are unbounded.
type PaymentFilter struct {
	CustomerID int
	Range      DateRange
}
