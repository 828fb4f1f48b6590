package core_test

import (
	"testing"

	"milk-ledger/internal/core"
)

func TestSaleService_RecordOrUpdateSale(t *testing.T) {
	t.Run("same key twice keeps one row", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")

		first := e.sale(t, c.ID, p.ID, "2", "60", "2023-10-27")
		second := e.sale(t, c.ID, p.ID, "3", "60", "2023-10-27")

		if first.ID != second.ID {
			t.Errorf("expected the row to be amended in place, ids %d and %d", first.ID, second.ID)
		}
		sales, err := e.sales.ListSales(e.ctx, core.SaleFilter{CustomerID: c.ID})
		if err != nil {
			t.Fatalf("ListSales failed: %v", err)
		}
		if len(sales) != 1 {
			t.Fatalf("expected exactly 1 sale, got %d", len(sales))
		}
		assertDecimal(t, "quantity", sales[0].Quantity, "3")
		assertDecimal(t, "total", sales[0].TotalAmount, "180")
	})

	t.Run("repeating an identical entry is idempotent", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")

		for i := 0; i < 3; i++ {
			e.sale(t, c.ID, p.ID, "1.5", "62", "2023-10-02")
		}
		assertDecimal(t, "due", e.dueAsOf(t, c.ID, "2023-10-31"), "93")
	})

	t.Run("total is exact quantity times price", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")

		s := e.sale(t, c.ID, p.ID, "0.333", "61.75", "2023-10-02")
		assertDecimal(t, "total", s.TotalAmount, "20.56275")
	})

	t.Run("different products on one day are separate sales", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		milk := e.product(t, "Cow Milk", "60")
		curd := e.product(t, "Curd", "90")

		e.sale(t, c.ID, milk.ID, "2", "60", "2023-10-02")
		e.sale(t, c.ID, curd.ID, "1", "90", "2023-10-02")

		sales, _ := e.sales.ListSales(e.ctx, core.SaleFilter{CustomerID: c.ID})
		if len(sales) != 2 {
			t.Fatalf("expected 2 sales, got %d", len(sales))
		}
	})
}

func TestSaleService_Validation(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")
	date := day(t, "2023-10-01")

	cases := []struct {
		name  string
		in    core.SaleInput
		field string
	}{
		{"negative quantity", core.SaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: dec("-1"), PricePerUnit: dec("60"), Date: date}, "quantity"},
		{"negative price", core.SaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: dec("1"), PricePerUnit: dec("-60"), Date: date}, "price_per_unit"},
		{"missing date", core.SaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: dec("1"), PricePerUnit: dec("60")}, "sale_date"},
		{"missing customer", core.SaleInput{ProductID: p.ID, Quantity: dec("1"), PricePerUnit: dec("60"), Date: date}, "customer_id"},
		{"missing product", core.SaleInput{CustomerID: c.ID, Quantity: dec("1"), PricePerUnit: dec("60"), Date: date}, "product_id"},
		{"sub-cent price", core.SaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: dec("3"), PricePerUnit: dec("10.005"), Date: date}, "price_per_unit"},
		{"quantity finer than a thousandth", core.SaleInput{CustomerID: c.ID, ProductID: p.ID, Quantity: dec("0.0005"), PricePerUnit: dec("60"), Date: date}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.sales.RecordOrUpdateSale(e.ctx, tc.in)
			assertValidation(t, err, tc.field)
		})
	}

	sales, _ := e.sales.ListSales(e.ctx, core.SaleFilter{})
	if len(sales) != 0 {
		t.Errorf("rejected entries must not be stored, found %d sales", len(sales))
	}

	t.Run("unknown customer", func(t *testing.T) {
		_, err := e.sales.RecordOrUpdateSale(e.ctx, core.SaleInput{CustomerID: 999, ProductID: p.ID, Quantity: dec("1"), PricePerUnit: dec("60"), Date: date})
		assertNotFound(t, err)
	})
	t.Run("unknown product", func(t *testing.T) {
		_, err := e.sales.RecordOrUpdateSale(e.ctx, core.SaleInput{CustomerID: c.ID, ProductID: 999, Quantity: dec("1"), PricePerUnit: dec("60"), Date: date})
		assertNotFound(t, err)
	})
}

func TestSaleService_ZeroEntries(t *testing.T) {
	cases := []struct {
		name, qty, price string
	}{
		{"nothing delivered", "0", "60"},
		{"free delivery", "2", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			c := e.customer(t, "Asha")
			p := e.product(t, "Cow Milk", "60")
			e.sale(t, c.ID, p.ID, "1", "60", "2023-10-01")
			before := e.dueAsOf(t, c.ID, "2023-10-31")

			s := e.sale(t, c.ID, p.ID, tc.qty, tc.price, "2023-10-02")
			assertDecimal(t, "total", s.TotalAmount, "0")

			sales, err := e.sales.ListSales(e.ctx, core.SaleFilter{CustomerID: c.ID, Range: core.Between(day(t, "2023-10-02"), day(t, "2023-10-02"))})
			if err != nil {
				t.Fatalf("ListSales failed: %v", err)
			}
			if len(sales) != 1 {
				t.Fatalf("expected 1 recorded entry, got %d", len(sales))
			}
			assertDecimal(t, "due", e.dueAsOf(t, c.ID, "2023-10-31"), before.String())
		})
	}
}

func TestSaleService_PriceSnapshot(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")
	if _, err := e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("60"), dec("1")); err != nil {
		t.Fatalf("AssignProduct failed: %v", err)
	}
	e.sale(t, c.ID, p.ID, "2", "60", "2023-10-01")

	if _, err := e.pricing.PropagateDefaultPriceChange(e.ctx, p.ID, dec("75"), true); err != nil {
		t.Fatalf("PropagateDefaultPriceChange failed: %v", err)
	}

	s, err := e.sales.FindSale(e.ctx, c.ID, p.ID, day(t, "2023-10-01"))
	if err != nil || s == nil {
		t.Fatalf("FindSale failed: %v", err)
	}
	assertDecimal(t, "price_per_unit", s.PricePerUnit, "60")
	assertDecimal(t, "total", s.TotalAmount, "120")
	assertDecimal(t, "due", e.dueAsOf(t, c.ID, "2023-10-31"), "120")
}

func TestSaleService_FindSale(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")

	s, err := e.sales.FindSale(e.ctx, c.ID, p.ID, day(t, "2023-10-01"))
	if err != nil {
		t.Fatalf("FindSale failed: %v", err)
	}
	if s != nil {
		t.Fatalf("expected no sale, got %+v", s)
	}

	e.sale(t, c.ID, p.ID, "2", "60", "2023-10-01")
	s, err = e.sales.FindSale(e.ctx, c.ID, p.ID, day(t, "2023-10-01"))
	if err != nil || s == nil {
		t.Fatalf("expected a sale, got %v, %v", s, err)
	}
}

func TestSaleService_MoveSale(t *testing.T) {
	t.Run("to a free date", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")
		s := e.sale(t, c.ID, p.ID, "2", "60", "2023-10-01")

		moved, err := e.sales.MoveSale(e.ctx, s.ID, day(t, "2023-10-03"))
		if err != nil {
			t.Fatalf("MoveSale failed: %v", err)
		}
		if !moved.SaleDate.Equal(day(t, "2023-10-03")) {
			t.Errorf("expected sale dated 2023-10-03, got %s", moved.SaleDate.Format(core.DateLayout))
		}
		old, _ := e.sales.FindSale(e.ctx, c.ID, p.ID, day(t, "2023-10-01"))
		if old != nil {
			t.Errorf("old-date sale should be gone")
		}
		assertDecimal(t, "due on 10-02", e.dueAsOf(t, c.ID, "2023-10-02"), "0")
		assertDecimal(t, "due on 10-03", e.dueAsOf(t, c.ID, "2023-10-03"), "120")
	})

	t.Run("onto an existing sale overwrites it", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")
		s := e.sale(t, c.ID, p.ID, "2", "60", "2023-10-01")
		e.sale(t, c.ID, p.ID, "5", "60", "2023-10-02")

		if _, err := e.sales.MoveSale(e.ctx, s.ID, day(t, "2023-10-02")); err != nil {
			t.Fatalf("MoveSale failed: %v", err)
		}
		sales, _ := e.sales.ListSales(e.ctx, core.SaleFilter{CustomerID: c.ID})
		if len(sales) != 1 {
			t.Fatalf("expected 1 sale after move, got %d", len(sales))
		}
		assertDecimal(t, "quantity", sales[0].Quantity, "2")
		assertDecimal(t, "due", e.dueAsOf(t, c.ID, "2023-10-31"), "120")
	})

	t.Run("same date is a no-op", func(t *testing.T) {
		e := newTestEnv(t)
		c := e.customer(t, "Asha")
		p := e.product(t, "Cow Milk", "60")
		s := e.sale(t, c.ID, p.ID, "2", "60", "2023-10-01")

		moved, err := e.sales.MoveSale(e.ctx, s.ID, day(t, "2023-10-01"))
		if err != nil {
			t.Fatalf("MoveSale failed: %v", err)
		}
		if moved.ID != s.ID {
			t.Errorf("expected id %d to be kept, got %d", s.ID, moved.ID)
		}
	})

	t.Run("unknown sale", func(t *testing.T) {
		e := newTestEnv(t)
		_, err := e.sales.MoveSale(e.ctx, 42, day(t, "2023-10-01"))
		assertNotFound(t, err)
	})
}

func TestSaleService_DeleteSale(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")
	keep := e.sale(t, c.ID, p.ID, "1", "60", "2023-10-01")
	drop := e.sale(t, c.ID, p.ID, "2", "60", "2023-10-02")
	e.payment(t, c.ID, "30", "2023-10-02")

	if err := e.sales.DeleteSale(e.ctx, drop.ID); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}
	assertDecimal(t, "due", e.dueAsOf(t, c.ID, "2023-10-31"), "30")
	if _, err := e.store.GetSale(e.ctx, keep.ID); err != nil {
		t.Errorf("other sale should survive: %v", err)
	}
	assertNotFound(t, e.sales.DeleteSale(e.ctx, drop.ID))
}

func TestSaleService_RecordDefaultDeliveries(t *testing.T) {
	e := newTestEnv(t)
	milk := e.product(t, "Cow Milk", "60")
	asha := e.customer(t, "Asha")
	bala := e.customer(t, "Bala")
	gone := e.customer(t, "Chitra")

	for _, a := range []struct {
		customerID   int
		price, quant string
	}{
		{asha.ID, "62", "1.5"},
		{bala.ID, "60", "2"},
		{gone.ID, "60", "1"},
	} {
		if _, err := e.pricing.AssignProduct(e.ctx, a.customerID, milk.ID, dec(a.price), dec(a.quant)); err != nil {
			t.Fatalf("AssignProduct failed: %v", err)
		}
	}
	if err := e.customers.DeactivateCustomer(e.ctx, gone.ID); err != nil {
		t.Fatalf("DeactivateCustomer failed: %v", err)
	}
	// Bala took less milk today; the operator entry must survive the round.
	e.sale(t, bala.ID, milk.ID, "1", "60", "2023-10-05")

	created, err := e.sales.RecordDefaultDeliveries(e.ctx, day(t, "2023-10-05"))
	if err != nil {
		t.Fatalf("RecordDefaultDeliveries failed: %v", err)
	}
	if len(created) != 1 || created[0].CustomerID != asha.ID {
		t.Fatalf("expected one sale for Asha, got %+v", created)
	}
	assertDecimal(t, "asha total", created[0].TotalAmount, "93")

	s, _ := e.sales.FindSale(e.ctx, bala.ID, milk.ID, day(t, "2023-10-05"))
	assertDecimal(t, "bala quantity", s.Quantity, "1")
	if s, _ := e.sales.FindSale(e.ctx, gone.ID, milk.ID, day(t, "2023-10-05")); s != nil {
		t.Errorf("inactive customer should get no delivery")
	}

	again, err := e.sales.RecordDefaultDeliveries(e.ctx, day(t, "2023-10-05"))
	if err != nil {
		t.Fatalf("second RecordDefaultDeliveries failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second round should create nothing, created %d", len(again))
	}
}

func TestSaleService_RecordDefaultDeliveries_SkipsZeroQuantity(t *testing.T) {
	e := newTestEnv(t)
	curd := e.product(t, "Curd", "90")
	asha := e.customer(t, "Asha")
	if _, err := e.pricing.AssignProduct(e.ctx, asha.ID, curd.ID, dec("88"), dec("0")); err != nil {
		t.Fatalf("AssignProduct failed: %v", err)
	}

	created, err := e.sales.RecordDefaultDeliveries(e.ctx, day(t, "2023-10-05"))
	if err != nil {
		t.Fatalf("RecordDefaultDeliveries failed: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("assignment without a standing quantity produced %d sales", len(created))
	}
}
