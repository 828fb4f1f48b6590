package app

import (
	"github.com/shopspring/decimal"
)

// CustomerRequest is the input for creating or updating a customer.
type CustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// ProductRequest is the input for creating or updating a product. DefaultPrice is
// ignored on update; use ChangeDefaultPrice.
type ProductRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	DefaultPrice decimal.Decimal `json:"default_price"`
}

type PriceChangeRequest struct {
	ProductID        int             `json:"product_id"`
	NewPrice         decimal.Decimal `json:"new_price"`
	ApplyToCustomers bool            `json:"apply_to_customers"`
	Confirm          bool            `json:"confirm"`
}

// AssignmentRequest is one row of a customer's product list.
type AssignmentRequest struct {
	ProductID       int             `json:"product_id"`
	CustomPrice     decimal.Decimal `json:"custom_price"`
	DefaultQuantity decimal.Decimal `json:"default_quantity"`
}

// SaleRequest is one delivery line. PricePerUnit nil means use the effective price.
type SaleRequest struct {
	CustomerID   int              `json:"customer_id"`
	ProductID    int              `json:"product_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit,omitempty"`
	Date         string           `json:"sale_date"`
}

type PaymentRequest struct {
	CustomerID int             `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount_paid"`
	Date       string          `json:"payment_date"`
	Notes      string          `json:"notes"`
}

type ExpenseRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Note     string          `json:"note"`
	Date     string          `json:"expense_date"`
}

// LedgerQuery filters sale and payment lists. Empty dates are unbounded; zero ids match all.
type LedgerQuery struct {
	CustomerID int
	ProductID  int
	From       string
	To         string
}
