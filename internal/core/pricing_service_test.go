package core_test

import (
	"testing"

	"milk-ledger/internal/core"
)

func TestPricingService_ResolveEffectivePrice(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	milk := e.product(t, "Cow Milk", "60")

	t.Run("falls back to the default price", func(t *testing.T) {
		price, err := e.pricing.ResolveEffectivePrice(e.ctx, c.ID, milk.ID)
		if err != nil {
			t.Fatalf("ResolveEffectivePrice failed: %v", err)
		}
		assertDecimal(t, "price", price, "60")
	})

	t.Run("custom price wins", func(t *testing.T) {
		if _, err := e.pricing.AssignProduct(e.ctx, c.ID, milk.ID, dec("65"), dec("1")); err != nil {
			t.Fatalf("AssignProduct failed: %v", err)
		}
		price, err := e.pricing.ResolveEffectivePrice(e.ctx, c.ID, milk.ID)
		if err != nil {
			t.Fatalf("ResolveEffectivePrice failed: %v", err)
		}
		assertDecimal(t, "price", price, "65")
	})

	t.Run("zero custom price is honoured", func(t *testing.T) {
		other := e.customer(t, "Bala")
		if _, err := e.pricing.AssignProduct(e.ctx, other.ID, milk.ID, dec("0"), dec("1")); err != nil {
			t.Fatalf("AssignProduct failed: %v", err)
		}
		price, _ := e.pricing.ResolveEffectivePrice(e.ctx, other.ID, milk.ID)
		assertDecimal(t, "price", price, "0")
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := e.pricing.ResolveEffectivePrice(e.ctx, c.ID, 999)
		assertNotFound(t, err)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := e.pricing.ResolveEffectivePrice(e.ctx, 999, milk.ID)
		assertNotFound(t, err)
	})
}

func TestPricingService_AssignProductReplaces(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")

	if _, err := e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("60"), dec("1")); err != nil {
		t.Fatalf("first AssignProduct failed: %v", err)
	}
	if _, err := e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("65"), dec("2")); err != nil {
		t.Fatalf("second AssignProduct failed: %v", err)
	}

	list, err := e.pricing.ListAssignments(e.ctx, c.ID)
	if err != nil {
		t.Fatalf("ListAssignments failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(list))
	}
	assertDecimal(t, "custom_price", list[0].CustomPrice, "65")
	assertDecimal(t, "default_quantity", list[0].DefaultQuantity, "2")
	if list[0].ProductName != "Cow Milk" || list[0].Unit != "litre" {
		t.Errorf("expected product details on the assignment, got %q %q", list[0].ProductName, list[0].Unit)
	}
}

func TestPricingService_AssignProductValidation(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")

	_, err := e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("-1"), dec("1"))
	assertValidation(t, err, "custom_price")
	_, err = e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("60"), dec("-1"))
	assertValidation(t, err, "default_quantity")
	_, err = e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("10.005"), dec("1"))
	assertValidation(t, err, "custom_price")
	_, err = e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("60"), dec("1.2345"))
	assertValidation(t, err, "default_quantity")
	_, err = e.pricing.PropagateDefaultPriceChange(e.ctx, p.ID, dec("60.125"), true)
	assertValidation(t, err, "default_price")
	assertDecimal(t, "default price", mustProduct(t, e, p.ID).DefaultPrice, "60")
	_, err = e.pricing.AssignProduct(e.ctx, c.ID, 999, dec("60"), dec("1"))
	assertNotFound(t, err)
}

func TestPricingService_SaveAssignments(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	milk := e.product(t, "Cow Milk", "60")
	curd := e.product(t, "Curd", "90")

	t.Run("batch with a missing product stores nothing", func(t *testing.T) {
		_, err := e.pricing.SaveAssignments(e.ctx, c.ID, []core.AssignmentInput{
			{ProductID: milk.ID, CustomPrice: dec("58"), DefaultQuantity: dec("1")},
			{ProductID: 999, CustomPrice: dec("10"), DefaultQuantity: dec("1")},
		})
		assertNotFound(t, err)

		list, _ := e.pricing.ListAssignments(e.ctx, c.ID)
		if len(list) != 0 {
			t.Errorf("expected rollback, found %d assignments", len(list))
		}
	})

	t.Run("duplicate product in batch", func(t *testing.T) {
		_, err := e.pricing.SaveAssignments(e.ctx, c.ID, []core.AssignmentInput{
			{ProductID: milk.ID, CustomPrice: dec("58"), DefaultQuantity: dec("1")},
			{ProductID: milk.ID, CustomPrice: dec("59"), DefaultQuantity: dec("1")},
		})
		assertValidation(t, err, "product_id")
	})

	t.Run("retrying a batch is safe", func(t *testing.T) {
		batch := []core.AssignmentInput{
			{ProductID: milk.ID, CustomPrice: dec("58"), DefaultQuantity: dec("1.5")},
			{ProductID: curd.ID, CustomPrice: dec("85"), DefaultQuantity: dec("0.5")},
		}
		for i := 0; i < 2; i++ {
			saved, err := e.pricing.SaveAssignments(e.ctx, c.ID, batch)
			if err != nil {
				t.Fatalf("SaveAssignments failed: %v", err)
			}
			if len(saved) != 2 {
				t.Fatalf("expected 2 saved, got %d", len(saved))
			}
		}
		list, _ := e.pricing.ListAssignments(e.ctx, c.ID)
		if len(list) != 2 {
			t.Fatalf("expected 2 assignments, got %d", len(list))
		}
	})
}

func TestPricingService_PropagateDefaultPriceChange(t *testing.T) {
	e := newTestEnv(t)
	milk := e.product(t, "Cow Milk", "60")
	curd := e.product(t, "Curd", "90")
	asha := e.customer(t, "Asha")
	bala := e.customer(t, "Bala")

	mustAssign := func(customerID, productID int, price string) {
		t.Helper()
		if _, err := e.pricing.AssignProduct(e.ctx, customerID, productID, dec(price), dec("1")); err != nil {
			t.Fatalf("AssignProduct failed: %v", err)
		}
	}
	mustAssign(asha.ID, milk.ID, "60")
	mustAssign(bala.ID, milk.ID, "62")
	mustAssign(asha.ID, curd.ID, "88")

	t.Run("without propagation keeps custom prices", func(t *testing.T) {
		n, err := e.pricing.PropagateDefaultPriceChange(e.ctx, milk.ID, dec("70"), false)
		if err != nil {
			t.Fatalf("PropagateDefaultPriceChange failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 overwritten, got %d", n)
		}
		p, _ := e.products.GetProduct(e.ctx, milk.ID)
		assertDecimal(t, "default_price", p.DefaultPrice, "70")
		price, _ := e.pricing.ResolveEffectivePrice(e.ctx, bala.ID, milk.ID)
		assertDecimal(t, "bala price", price, "62")
	})

	t.Run("with propagation overwrites only that product", func(t *testing.T) {
		n, err := e.pricing.PropagateDefaultPriceChange(e.ctx, milk.ID, dec("75"), true)
		if err != nil {
			t.Fatalf("PropagateDefaultPriceChange failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 overwritten, got %d", n)
		}
		for _, c := range []*core.Customer{asha, bala} {
			price, _ := e.pricing.ResolveEffectivePrice(e.ctx, c.ID, milk.ID)
			assertDecimal(t, c.Name+" milk price", price, "75")
		}
		price, _ := e.pricing.ResolveEffectivePrice(e.ctx, asha.ID, curd.ID)
		assertDecimal(t, "curd price", price, "88")
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := e.pricing.PropagateDefaultPriceChange(e.ctx, 999, dec("75"), true)
		assertNotFound(t, err)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := e.pricing.PropagateDefaultPriceChange(e.ctx, milk.ID, dec("-1"), true)
		assertValidation(t, err, "default_price")
	})
}

func TestPricingService_RemoveAssignment(t *testing.T) {
	e := newTestEnv(t)
	c := e.customer(t, "Asha")
	p := e.product(t, "Cow Milk", "60")
	if _, err := e.pricing.AssignProduct(e.ctx, c.ID, p.ID, dec("65"), dec("1")); err != nil {
		t.Fatalf("AssignProduct failed: %v", err)
	}
	if err := e.pricing.RemoveAssignment(e.ctx, c.ID, p.ID); err != nil {
		t.Fatalf("RemoveAssignment failed: %v", err)
	}
	price, _ := e.pricing.ResolveEffectivePrice(e.ctx, c.ID, p.ID)
	assertDecimal(t, "price", price, "60")
	assertNotFound(t, e.pricing.RemoveAssignment(e.ctx, c.ID, p.ID))
}
