package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindSale    = "sale"
	KindPayment = "payment"
)

// EntryProposal is the model's reading of a delivery or collection note. It is only ever
// shown to the operator; nothing is recorded until they confirm it.
type EntryProposal struct {
	Kind         string  `json:"kind" jsonschema:"enum=sale,enum=payment" jsonschema_description:"sale for a delivery, payment for money received"`
	CustomerName string  `json:"customer_name" jsonschema_description:"Customer name exactly as listed in the register"`
	ProductName  string  `json:"product_name" jsonschema_description:"Product name from the catalogue; empty for payments"`
	Quantity     string  `json:"quantity" jsonschema_description:"Delivered quantity as a decimal string; empty for payments"`
	Amount       string  `json:"amount" jsonschema_description:"Amount received as a decimal string; empty for sales"`
	Date         string  `json:"date" jsonschema_description:"Date of the event, YYYY-MM-DD"`
	Notes        string  `json:"notes"`
	Confidence   float64 `json:"confidence" jsonschema_description:"0.0 to 1.0"`
	Reasoning    string  `json:"reasoning"`
}

// Normalize cleans up common formatting issues in model output.
func (p *EntryProposal) Normalize(today time.Time) {
	p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
	p.CustomerName = strings.TrimSpace(p.CustomerName)
	p.ProductName = strings.TrimSpace(p.ProductName)
	p.Date = strings.TrimSpace(p.Date)
	p.Notes = strings.TrimSpace(p.Notes)

	if p.Date == "" || strings.EqualFold(p.Date, "null") || strings.EqualFold(p.Date, "today") {
		p.Date = today.Format("2006-01-02")
	}
	for _, v := range []*string{&p.Quantity, &p.Amount} {
		*v = strings.TrimSpace(*v)
		if strings.EqualFold(*v, "null") {
			*v = ""
		}
	}
}

// Validate rejects proposals that could not be turned into a ledger entry.
func (p *EntryProposal) Validate() error {
	if p.CustomerName == "" {
		return errors.New("proposal must name a customer")
	}
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range", p.Confidence)
	}

	switch p.Kind {
	case KindSale:
		if p.ProductName == "" {
			return errors.New("sale proposal must name a product")
		}
		return checkAmount("quantity", p.Quantity)
	case KindPayment:
		return checkAmount("amount", p.Amount)
	default:
		return fmt.Errorf("unknown proposal kind %q", p.Kind)
	}
}

func checkAmount(field, v string) error {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
