package expense

import (
	"context"

	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/internal/metrics"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/shopspring/decimal"
)

// FallbackRepository tries primary first and serves every failed call from secondary.
// Callers cannot tell the two apart; failures only show up in logs and the
// remote_fallbacks_total metric.
type FallbackRepository struct {
	primary   Repository
	secondary Repository
}

func NewFallbackRepository(primary, secondary Repository) *FallbackRepository {
	return &FallbackRepository{primary: primary, secondary: secondary}
}

func (f *FallbackRepository) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackRepository) degrade(ctx context.Context, op string, err error) {
	traceID := contextutil.TraceIDFromContext(ctx)
	metrics.RemoteFallbacks.WithLabelValues(op).Inc()
	logging.Logger.Warnf("[TraceID=%s] | %s repository failed in %s, falling back to %s | Error: %v", traceID, f.primary.Name(), op, f.secondary.Name(), err)
}

func (f *FallbackRepository) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	expenses, err := f.primary.ListExpenses(ctx, userID)
	if err == nil {
		return expenses, nil
	}
	f.degrade(ctx, "ListExpenses", err)
	return f.secondary.ListExpenses(ctx, userID)
}

func (f *FallbackRepository) AddExpense(ctx context.Context, e Expense) (Expense, error) {
	added, err := f.primary.AddExpense(ctx, e)
	if err == nil {
		return added, nil
	}
	f.degrade(ctx, "AddExpense", err)
	return f.secondary.AddExpense(ctx, e)
}

func (f *FallbackRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	err := f.primary.DeleteExpense(ctx, userID, id)
	if err == nil {
		return nil
	}
	f.degrade(ctx, "DeleteExpense", err)
	return f.secondary.DeleteExpense(ctx, userID, id)
}

func (f *FallbackRepository) GetBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	amount, err := f.primary.GetBudget(ctx, userID)
	if err == nil {
		return amount, nil
	}
	f.degrade(ctx, "GetBudget", err)
	return f.secondary.GetBudget(ctx, userID)
}

func (f *FallbackRepository) SetBudget(ctx context.Context, userID string, amount decimal.Decimal) error {
	err := f.primary.SetBudget(ctx, userID, amount)
	if err == nil {
		return nil
	}
	f.degrade(ctx, "SetBudget", err)
	return f.secondary.SetBudget(ctx, userID, amount)
}

func (f *FallbackRepository) ListCards(ctx context.Context, userID string) ([]Card, error) {
	cards, err := f.primary.ListCards(ctx, userID)
	if err == nil {
		return cards, nil
	}
	f.degrade(ctx, "ListCards", err)
	return f.secondary.ListCards(ctx, userID)
}

func (f *FallbackRepository) AddCard(ctx context.Context, c Card) (Card, error) {
	added, err := f.primary.AddCard(ctx, c)
	if err == nil {
		return added, nil
	}
	f.degrade(ctx, "AddCard", err)
	return f.secondary.AddCard(ctx, c)
}
