package core

import (
	"context"
	"fmt"
	"strings"
)

// ProductService manages the central product catalogue. Default price changes go
// through PricingService.PropagateDefaultPriceChange.
type ProductService interface {
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int, name, unit string) (*Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type productService struct {
	store Store
}

func NewProductService(store Store) ProductService {
	return &productService{store: store}
}

func (s *productService) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	if in.Unit == "" {
		return nil, invalid("unit", "is required")
	}
	if err := checkNonNegative("default_price", in.DefaultPrice, MoneyScale); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProduct(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", in.Name, err)
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id int, name, unit string) (*Product, error) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if unit == "" {
		return nil, invalid("unit", "is required")
	}
	return s.store.UpdateProduct(ctx, id, name, unit)
}

func (s *productService) GetProduct(ctx context.Context, id int) (*Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *productService) ListProducts(ctx context.Context) ([]Product, error) {
	return s.store.ListProducts(ctx)
}

// DeleteProduct removes the product together with its assignments and sales.
func (s *productService) DeleteProduct(ctx context.Context, id int) error {
	return s.store.DeleteProduct(ctx, id)
}
