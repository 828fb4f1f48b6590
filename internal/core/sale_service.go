package core

import (
	"context"
	"fmt"
	"time"
)

// SaleService records deliveries. At most one sale exists per (customer, product, date);
// recording again for the same key amends that row.
type SaleService interface {
	// FindSale returns the sale for the key, or nil when none has been recorded.
	FindSale(ctx context.Context, customerID, productID int, day time.Time) (*Sale, error)

	// RecordOrUpdateSale stores quantity × price for the key, inserting or amending in place.
	RecordOrUpdateSale(ctx context.Context, in SaleInput) (*Sale, error)

	// MoveSale re-dates a sale. The old-date row is deleted and the values are upserted at
	// the new date in one transaction; an existing sale at the target key is overwritten.
	MoveSale(ctx context.Context, saleID int, newDate time.Time) (*Sale, error)

	DeleteSale(ctx context.Context, saleID int) error
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// RecordDefaultDeliveries records every active customer's standing order for a day:
	// default quantity at the custom price for each assignment. Keys that already have a
	// sale are left as they are. It returns the sales it created.
	RecordDefaultDeliveries(ctx context.Context, day time.Time) ([]Sale, error)
}

type saleService struct {
	store Store
}

func NewSaleService(store Store) SaleService {
	return &saleService{store: store}
}

func (s *saleService) FindSale(ctx context.Context, customerID, productID int, day time.Time) (*Sale, error) {
	if day.IsZero() {
		return nil, invalid("sale_date", "is required")
	}
	return s.store.FindSale(ctx, customerID, productID, Day(day))
}

// Validate checks the fields of a sale entry.
func (in SaleInput) Validate() error {
	if in.CustomerID <= 0 {
		return invalid("customer_id", "is required")
	}
	if in.ProductID <= 0 {
		return invalid("product_id", "is required")
	}
	if in.Date.IsZero() {
		return invalid("sale_date", "is required")
	}
	if err := checkNonNegative("quantity", in.Quantity, QuantityScale); err != nil {
		return err
	}
	return checkNonNegative("price_per_unit", in.PricePerUnit, MoneyScale)
}

func upsertSale(ctx context.Context, st Store, in SaleInput) (*Sale, error) {
	if _, err := st.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	if _, err := st.GetProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	return st.UpsertSale(ctx, Sale{
		CustomerID:   in.CustomerID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		PricePerUnit: in.PricePerUnit,
		TotalAmount:  in.Quantity.Mul(in.PricePerUnit),
		SaleDate:     Day(in.Date),
	})
}

func (s *saleService) RecordOrUpdateSale(ctx context.Context, in SaleInput) (*Sale, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sale, err := upsertSale(ctx, s.store, in)
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) MoveSale(ctx context.Context, saleID int, newDate time.Time) (*Sale, error) {
	if newDate.IsZero() {
		return nil, invalid("sale_date", "is required")
	}
	var moved *Sale
	err := s.store.InTx(ctx, func(tx Store) error {
		old, err := tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if old.SaleDate.Equal(Day(newDate)) {
			moved = old
			return nil
		}
		if err := tx.DeleteSale(ctx, saleID); err != nil {
			return err
		}
		moved, err = upsertSale(ctx, tx, SaleInput{
			CustomerID:   old.CustomerID,
			ProductID:    old.ProductID,
			Quantity:     old.Quantity,
			PricePerUnit: old.PricePerUnit,
			Date:         newDate,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("move sale %d: %w", saleID, err)
	}
	return moved, nil
}

func (s *saleService) DeleteSale(ctx context.Context, saleID int) error {
	return s.store.DeleteSale(ctx, saleID)
}

func (s *saleService) ListSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	return s.store.ListSales(ctx, f)
}

func (s *saleService) RecordDefaultDeliveries(ctx context.Context, day time.Time) ([]Sale, error) {
	if day.IsZero() {
		return nil, invalid("sale_date", "is required")
	}
	day = Day(day)

	var created []Sale
	err := s.store.InTx(ctx, func(tx Store) error {
		customers, err := tx.ListCustomers(ctx, true)
		if err != nil {
			return err
		}
		for _, c := range customers {
			assignments, err := tx.ListAssignments(ctx, c.ID)
			if err != nil {
				return err
			}
			for _, a := range assignments {
				if !a.DefaultQuantity.IsPositive() {
					continue
				}
				existing, err := tx.FindSale(ctx, c.ID, a.ProductID, day)
				if err != nil {
					return err
				}
				if existing != nil {
					continue
				}
				sale, err := tx.UpsertSale(ctx, Sale{
					CustomerID:   c.ID,
					ProductID:    a.ProductID,
					Quantity:     a.DefaultQuantity,
					PricePerUnit: a.CustomPrice,
					TotalAmount:  a.DefaultQuantity.Mul(a.CustomPrice),
					SaleDate:     day,
				})
				if err != nil {
					return err
				}
				created = append(created, *sale)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record default deliveries for %s: %w", day.Format(DateLayout), err)
	}
	return created, nil
}
