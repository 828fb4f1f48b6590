package core

import (
	"context"
	"fmt"
	"strings"
)

// CustomerService manages the customer register.
type CustomerService interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	// ListCustomers returns active customers, or every customer when includeInactive is set.
	ListCustomers(ctx context.Context, includeInactive bool) ([]Customer, error)
	// DeactivateCustomer hides a customer from active lists. Their history stays in the ledger.
	DeactivateCustomer(ctx context.Context, id int) error
	ReactivateCustomer(ctx context.Context, id int) error
	// DeleteCustomer removes the customer and, by cascade, every sale, payment and
	// assignment they own. Normal flows deactivate instead.
	DeleteCustomer(ctx context.Context, id int) error
}

type customerService struct {
	store Store
}

func NewCustomerService(store Store) CustomerService {
	return &customerService{store: store}
}

func normalizeCustomer(in CustomerInput) (CustomerInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, invalid("name", "is required")
	}
	return in, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	c, err := s.store.CreateCustomer(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", in.Name, err)
	}
	return c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int, in CustomerInput) (*Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateCustomer(ctx, id, in)
}

func (s *customerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *customerService) ListCustomers(ctx context.Context, includeInactive bool) ([]Customer, error) {
	return s.store.ListCustomers(ctx, !includeInactive)
}

func (s *customerService) DeactivateCustomer(ctx context.Context, id int) error {
	return s.store.SetCustomerActive(ctx, id, false)
}

func (s *customerService) ReactivateCustomer(ctx context.Context, id int) error {
	return s.store.SetCustomerActive(ctx, id, true)
}

func (s *customerService) DeleteCustomer(ctx context.Context, id int) error {
	return s.store.DeleteCustomer(ctx, id)
}
