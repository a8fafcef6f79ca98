package expense

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocalRepository keeps every user's records in shared lists inside the profile store.
type LocalRepository struct {
	store *kv.Store
}

func NewLocalRepository(store *kv.Store) *LocalRepository {
	return &LocalRepository{store: store}
}

func (l *LocalRepository) Name() string {
	return "local"
}

func (l *LocalRepository) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	var all []Expense
	l.store.Get(ctx, kv.KeyExpenses, &all)

	owned := make([]Expense, 0, len(all))
	for _, e := range all {
		if e.UserID == userID {
			owned = append(owned, e)
		}
	}
	return SortExpenses(owned, SortDateDesc), nil
}

func (l *LocalRepository) AddExpense(ctx context.Context, e Expense) (Expense, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Expense{}, fmt.Errorf("failed to generate expense id: %w", err)
	}
	e.ID = id.String()

	err = l.store.Atomic(func() error {
		var all []Expense
		l.store.Get(ctx, kv.KeyExpenses, &all)
		all = append([]Expense{e}, all...)
		return l.store.Set(ctx, kv.KeyExpenses, all)
	})
	if err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (l *LocalRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	return l.store.Atomic(func() error {
		var all []Expense
		if !l.store.Get(ctx, kv.KeyExpenses, &all) {
			return nil
		}

		kept := all[:0]
		for _, e := range all {
			if e.ID == id && e.UserID == userID {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == len(all) {
			return nil
		}
		return l.store.Set(ctx, kv.KeyExpenses, kept)
	})
}

func (l *LocalRepository) GetBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	if !l.store.Get(ctx, kv.BudgetKey(userID), &amount) {
		return decimal.Zero, nil
	}
	return amount, nil
}

func (l *LocalRepository) SetBudget(ctx context.Context, userID string, amount decimal.Decimal) error {
	return l.store.Set(ctx, kv.BudgetKey(userID), amount)
}

func (l *LocalRepository) ListCards(ctx context.Context, userID string) ([]Card, error) {
	var all []Card
	l.store.Get(ctx, kv.KeyCards, &all)

	owned := make([]Card, 0, len(all))
	for _, c := range all {
		if c.UserID == userID {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

func (l *LocalRepository) AddCard(ctx context.Context, c Card) (Card, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Card{}, fmt.Errorf("failed to generate card id: %w", err)
	}
	c.ID = id.String()

	err = l.store.Atomic(func() error {
		var all []Card
		l.store.Get(ctx, kv.KeyCards, &all)
		all = append(all, c)
		return l.store.Set(ctx, kv.KeyCards, all)
	})
	if err != nil {
		return Card{}, err
	}
	return c, nil
}
