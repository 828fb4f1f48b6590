package core

import (
	"context"
	"fmt"
	"strings"
)

// PaymentService records money received from customers. Several payments on the same
// day are allowed.
type PaymentService interface {
	RecordPayment(ctx context.Context, in PaymentInput) (*Payment, error)
	DeletePayment(ctx context.Context, id int) error
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
}

type paymentService struct {
	store Store
}

func NewPaymentService(store Store) PaymentService {
	return &paymentService{store: store}
}

func (s *paymentService) RecordPayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	if in.CustomerID <= 0 {
		return nil, invalid("customer_id", "is required")
	}
	if in.Date.IsZero() {
		return nil, invalid("payment_date", "is required")
	}
	if err := checkNonNegative("amount_paid", in.Amount, MoneyScale); err != nil {
		return nil, err
	}
	in.Date = Day(in.Date)
	in.Notes = strings.TrimSpace(in.Notes)

	if _, err := s.store.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	p, err := s.store.CreatePayment(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return p, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, id int) error {
	return s.store.DeletePayment(ctx, id)
}

func (s *paymentService) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	return s.store.ListPayments(ctx, f)
}
