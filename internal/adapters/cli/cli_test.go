package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"milk-ledger/internal/app"
	"milk-ledger/internal/core"
	"milk-ledger/internal/store/memory"
)

func newTestService(t *testing.T) app.ApplicationService {
	t.Helper()
	svc := app.NewAppService(app.NewServices(memory.NewSeeded()), nil, app.Operator{})
	if _, err := svc.CreateCustomer(context.Background(), app.CustomerRequest{Name: "Asha"}); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return svc
}

func run(t *testing.T, svc app.ApplicationService, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), svc, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRun_SalePaymentAndDue(t *testing.T) {
	svc := newTestService(t)

	out, err := run(t, svc, "", "sale", "1", "1", "2", "2024-10-01")
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	var sale core.Sale
	if err := json.Unmarshal([]byte(out), &sale); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("sale total = %s, want 120", sale.TotalAmount)
	}

	if _, err := run(t, svc, "", "payment", "1", "50", "2024-10-02", "cash", "at", "door"); err != nil {
		t.Fatalf("payment: %v", err)
	}

	out, err = run(t, svc, "", "due", "1", "2024-10-31")
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if strings.TrimSpace(out) != "70.00" {
		t.Errorf("due = %q, want 70.00", out)
	}

	out, err = run(t, svc, "", "dues", "2024-10-31")
	if err != nil {
		t.Fatalf("dues: %v", err)
	}
	if !strings.Contains(out, "Asha") || !strings.Contains(out, "70.00") {
		t.Errorf("dues output missing row:\n%s", out)
	}
}

func TestRun_Commit(t *testing.T) {
	svc := newTestService(t)
	in := `{"kind":"payment","customer_id":1,"amount":"200","date":"2024-10-05"}`
	out, err := run(t, svc, in, "commit")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	var res app.CommitResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Payment == nil || !res.Payment.AmountPaid.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected commit result: %+v", res)
	}
}

func TestRun_Usage(t *testing.T) {
	svc := newTestService(t)
	tests := [][]string{
		nil,
		{"frobnicate"},
		{"sale", "1", "1"},
		{"summary", "2024-10-01"},
	}
	for _, args := range tests {
		if _, err := run(t, svc, "", args...); !errors.Is(err, ErrUsage) {
			t.Errorf("%v: expected ErrUsage, got %v", args, err)
		}
	}
}

func TestRun_ValidationPassesThrough(t *testing.T) {
	svc := newTestService(t)
	_, err := run(t, svc, "", "summary", "2024-10-31", "2024-10-01")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
}
