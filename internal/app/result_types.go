package app

import (
	"milk-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

type AssignmentListResult struct {
	CustomerID  int                    `json:"customer_id"`
	Assignments []core.CustomerProduct `json:"assignments"`
}

type PriceChangeResult struct {
	Product     *core.Product `json:"product"`
	Overwritten int           `json:"overwritten"`
}

type PriceResult struct {
	CustomerID int             `json:"customer_id"`
	ProductID  int             `json:"product_id"`
	Price      decimal.Decimal `json:"price"`
}

type SaleListResult struct {
	Sales []core.Sale     `json:"sales"`
	Total decimal.Decimal `json:"total"`
}

type PaymentListResult struct {
	Payments []core.Payment  `json:"payments"`
	Total    decimal.Decimal `json:"total"`
}

type ExpenseListResult struct {
	Expenses []core.Expense  `json:"expenses"`
	Total    decimal.Decimal `json:"total"`
}

// DueResult is returned by GetCustomerDue.
type DueResult struct {
	CustomerID int             `json:"customer_id"`
	AsOf       string          `json:"as_of"`
	Due        decimal.Decimal `json:"due"`
}

// DuesResult is the dues dashboard.
type DuesResult struct {
	AsOf  string             `json:"as_of"`
	Dues  []core.CustomerDue `json:"dues"`
	Total decimal.Decimal    `json:"total"`
}

type DuesReportResult struct {
	From      string               `json:"from"`
	To        string               `json:"to"`
	Customers []core.PeriodSummary `json:"customers"`
}

// ProposedEntry is an assistant proposal resolved against the register. Commit records
// it as a sale (Kind "sale") or a payment (Kind "payment").
type ProposedEntry struct {
	Kind         string          `json:"kind"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	ProductID    int             `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Notes        string          `json:"notes,omitempty"`
	Confidence   float64         `json:"confidence"`
	Reasoning    string          `json:"reasoning"`
	// Replaces is the sale this entry would amend, when one exists for the key.
	Replaces *core.Sale `json:"replaces,omitempty"`
}

// AIResult is returned by InterpretNote.
type AIResult struct {
	Proposal             *ProposedEntry `json:"proposal,omitempty"`
	ClarificationMessage string         `json:"clarification,omitempty"`
	IsClarification      bool           `json:"is_clarification"`
}

// CommitResult is returned by CommitProposal; exactly one of Sale and Payment is set.
type CommitResult struct {
	Sale    *core.Sale    `json:"sale,omitempty"`
	Payment *core.Payment `json:"payment,omitempty"`
}

// OperatorSession is returned by AuthenticateOperator.
type OperatorSession struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
