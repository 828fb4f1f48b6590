package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is stored to the minor unit and quantities to the thousandth.
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// ValidationError rejects input before any storage mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an operation on a row that does not exist.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// checkNonNegative rejects negative values and values with more than scale decimal places.
func checkNonNegative(field string, d decimal.Decimal, scale int32) error {
	if d.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !d.Equal(d.Truncate(scale)) {
		return invalid(field, fmt.Sprintf("must have at most %d decimal places", scale))
	}
	return nil
}

func notFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewNotFound is used by store implementations to report a missing row.
func NewNotFound(entity string, id int) error {
	return notFound(entity, id)
}
