package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingService decides which unit price a new sale entry starts from and keeps
// customer prices in step with the catalogue when the operator asks for it.
type PricingService interface {
	// ResolveEffectivePrice returns the customer's custom price for the product, or the
	// product's default price when the customer has no assignment for it.
	ResolveEffectivePrice(ctx context.Context, customerID, productID int) (decimal.Decimal, error)

	// AssignProduct upserts the (customer, product) assignment.
	AssignProduct(ctx context.Context, customerID, productID int, customPrice, defaultQuantity decimal.Decimal) (*CustomerProduct, error)

	// SaveAssignments upserts several assignments for one customer in a single transaction.
	SaveAssignments(ctx context.Context, customerID int, inputs []AssignmentInput) ([]CustomerProduct, error)

	RemoveAssignment(ctx context.Context, customerID, productID int) error
	ListAssignments(ctx context.Context, customerID int) ([]CustomerProduct, error)

	// PropagateDefaultPriceChange sets the product's default price. With applyToCustomers it
	// also overwrites the custom price of every customer assigned to the product, discarding
	// negotiated prices; callers must have the operator's confirmation before passing true.
	// It returns the number of assignments overwritten.
	PropagateDefaultPriceChange(ctx context.Context, productID int, newPrice decimal.Decimal, applyToCustomers bool) (int, error)
}

type pricingService struct {
	store Store
}

func NewPricingService(store Store) PricingService {
	return &pricingService{store: store}
}

func (s *pricingService) ResolveEffectivePrice(ctx context.Context, customerID, productID int) (decimal.Decimal, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return decimal.Zero, err
	}
	a, err := s.store.GetAssignment(ctx, customerID, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve price: %w", err)
	}
	if a != nil {
		return a.CustomPrice, nil
	}
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.DefaultPrice, nil
}

func validateAssignment(customPrice, defaultQuantity decimal.Decimal) error {
	if err := checkNonNegative("custom_price", customPrice, MoneyScale); err != nil {
		return err
	}
	return checkNonNegative("default_quantity", defaultQuantity, QuantityScale)
}

func assign(ctx context.Context, st Store, customerID, productID int, customPrice, defaultQuantity decimal.Decimal) (*CustomerProduct, error) {
	if _, err := st.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := st.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return st.UpsertAssignment(ctx, CustomerProduct{
		CustomerID:      customerID,
		ProductID:       productID,
		CustomPrice:     customPrice,
		DefaultQuantity: defaultQuantity,
	})
}

func (s *pricingService) AssignProduct(ctx context.Context, customerID, productID int, customPrice, defaultQuantity decimal.Decimal) (*CustomerProduct, error) {
	if err := validateAssignment(customPrice, defaultQuantity); err != nil {
		return nil, err
	}
	return assign(ctx, s.store, customerID, productID, customPrice, defaultQuantity)
}

func (s *pricingService) SaveAssignments(ctx context.Context, customerID int, inputs []AssignmentInput) ([]CustomerProduct, error) {
	// Validate the whole batch before touching storage.
	seen := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		if err := validateAssignment(in.CustomPrice, in.DefaultQuantity); err != nil {
			return nil, err
		}
		if seen[in.ProductID] {
			return nil, invalid("product_id", fmt.Sprintf("product %d listed twice", in.ProductID))
		}
		seen[in.ProductID] = true
	}

	saved := make([]CustomerProduct, 0, len(inputs))
	err := s.store.InTx(ctx, func(tx Store) error {
		for _, in := range inputs {
			a, err := assign(ctx, tx, customerID, in.ProductID, in.CustomPrice, in.DefaultQuantity)
			if err != nil {
				return err
			}
			saved = append(saved, *a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save assignments for customer %d: %w", customerID, err)
	}
	return saved, nil
}

func (s *pricingService) RemoveAssignment(ctx context.Context, customerID, productID int) error {
	return s.store.DeleteAssignment(ctx, customerID, productID)
}

func (s *pricingService) ListAssignments(ctx context.Context, customerID int) ([]CustomerProduct, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(ctx, customerID)
}

func (s *pricingService) PropagateDefaultPriceChange(ctx context.Context, productID int, newPrice decimal.Decimal, applyToCustomers bool) (int, error) {
	if err := checkNonNegative("default_price", newPrice, MoneyScale); err != nil {
		return 0, err
	}

	var overwritten int
	err := s.store.InTx(ctx, func(tx Store) error {
		if err := tx.SetDefaultPrice(ctx, productID, newPrice); err != nil {
			return err
		}
		if !applyToCustomers {
			return nil
		}
		n, err := tx.SetCustomPrices(ctx, productID, newPrice)
		if err != nil {
			return err
		}
		overwritten = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("change default price of product %d: %w", productID, err)
	}
	return overwritten, nil
}
