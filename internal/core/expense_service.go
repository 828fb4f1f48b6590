package core

import (
	"context"
	"fmt"
	"strings"
)

// ExpenseService records business costs (fodder, fuel, wages). Expenses only feed
// profit reporting.
type ExpenseService interface {
	RecordExpense(ctx context.Context, in ExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, id int) error
	ListExpenses(ctx context.Context, r DateRange) ([]Expense, error)
}

type expenseService struct {
	store Store
}

func NewExpenseService(store Store) ExpenseService {
	return &expenseService{store: store}
}

func (s *expenseService) RecordExpense(ctx context.Context, in ExpenseInput) (*Expense, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Note = strings.TrimSpace(in.Note)
	if in.Category == "" {
		return nil, invalid("category", "is required")
	}
	if in.Date.IsZero() {
		return nil, invalid("expense_date", "is required")
	}
	if err := checkNonNegative("amount", in.Amount, MoneyScale); err != nil {
		return nil, err
	}
	in.Date = Day(in.Date)

	e, err := s.store.CreateExpense(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record expense: %w", err)
	}
	return e, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, id int) error {
	return s.store.DeleteExpense(ctx, id)
}

func (s *expenseService) ListExpenses(ctx context.Context, r DateRange) ([]Expense, error) {
	return s.store.ListExpenses(ctx, r)
}
