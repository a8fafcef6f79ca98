package expense

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the storage capability behind the Manager. Implementations scope
// every read and delete to userID.
type Repository interface {
	// ListExpenses returns the user's expenses, newest date first.
	ListExpenses(ctx context.Context, userID string) ([]Expense, error)
	// AddExpense stores e and returns it with its id assigned.
	AddExpense(ctx context.Context, e Expense) (Expense, error)
	// DeleteExpense is a no-op when no such expense exists.
	DeleteExpense(ctx context.Context, userID, id string) error

	// GetBudget returns zero when the user never set one.
	GetBudget(ctx context.Context, userID string) (decimal.Decimal, error)
	SetBudget(ctx context.Context, userID string, amount decimal.Decimal) error

	ListCards(ctx context.Context, userID string) ([]Card, error)
	AddCard(ctx context.Context, c Card) (Card, error)

	Name() string
}
