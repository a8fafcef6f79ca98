package expense

import (
	"context"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/shopspring/decimal"
)

// SessionSource yields the signed-in user. *auth.Service satisfies it.
type SessionSource interface {
	Current(ctx context.Context) (auth.SessionRecord, bool)
}

// Manager scopes every repository call to the current session.
type Manager struct {
	repo    Repository
	session SessionSource
	now     func() time.Time
}

func NewManager(repo Repository, session SessionSource) *Manager {
	return &Manager{
		repo:    repo,
		session: session,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) requireSession(ctx context.Context) (auth.SessionRecord, error) {
	user, ok := m.session.Current(ctx)
	if !ok {
		return auth.SessionRecord{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Please login to continue.",
		}
	}
	return user, nil
}

// GetExpenses returns the session user's expenses, newest date first. Without a
// session the list is empty.
func (m *Manager) GetExpenses(ctx context.Context) ([]Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, ok := m.session.Current(ctx)
	if !ok {
		return []Expense{}, nil
	}

	expenses, err := m.repo.ListExpenses(ctx, user.ID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list expenses in Manager.GetExpenses() | Error: %v", traceID, err)
		return []Expense{}, nil
	}

	owned := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.UserID == user.ID {
			owned = append(owned, e)
		}
	}
	return SortExpenses(owned, SortDateDesc), nil
}

func (m *Manager) AddExpense(ctx context.Context, newExpense NewExpense) (Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, err := m.requireSession(ctx)
	if err != nil {
		return Expense{}, err
	}

	newExpense.Title = strings.TrimSpace(newExpense.Title)
	newExpense.Category = strings.TrimSpace(newExpense.Category)
	newExpense.Date = strings.TrimSpace(newExpense.Date)
	newExpense.Description = strings.TrimSpace(newExpense.Description)

	price, err := newExpense.Validate()
	if err != nil {
		return Expense{}, err
	}

	e := Expense{
		UserID:      user.ID,
		Title:       newExpense.Title,
		Price:       price,
		Category:    newExpense.Category,
		Date:        newExpense.Date,
		Description: newExpense.Description,
		CreatedAt:   m.now(),
	}

	added, err := m.repo.AddExpense(ctx, e)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save expense in Manager.AddExpense() | Error: %v", traceID, err)
		return Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the expense, try again later.",
		}
	}
	return added, nil
}

func (m *Manager) DeleteExpense(ctx context.Context, id string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, err := m.requireSession(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return appErrors.Invalid("Expense id is required.", map[string]string{"id": "Expense id is required"})
	}

	if err := m.repo.DeleteExpense(ctx, user.ID, id); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete expense %s in Manager.DeleteExpense() | Error: %v", traceID, id, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to delete the expense, try again later.",
		}
	}
	return nil
}

// GetBudget returns zero without a session or when no budget was set.
func (m *Manager) GetBudget(ctx context.Context) (decimal.Decimal, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, ok := m.session.Current(ctx)
	if !ok {
		return decimal.Zero, nil
	}

	amount, err := m.repo.GetBudget(ctx, user.ID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to read budget in Manager.GetBudget() | Error: %v", traceID, err)
		return decimal.Zero, nil
	}
	return amount, nil
}

func (m *Manager) SetBudget(ctx context.Context, amount decimal.Decimal) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, err := m.requireSession(ctx)
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		return appErrors.Invalid("Budget cannot be negative.", map[string]string{"amount": "Budget cannot be negative"})
	}
	if amount.GreaterThan(MaxAmount) {
		return appErrors.Invalid("Budget is too large.", map[string]string{"amount": "Budget is too large"})
	}

	if err := m.repo.SetBudget(ctx, user.ID, amount); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save budget in Manager.SetBudget() | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the budget, try again later.",
		}
	}
	return nil
}

// History applies the filter and sort to the session user's expenses.
func (m *Manager) History(ctx context.Context, filter Filter, sortMode string) ([]Expense, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseSort(sortMode)
	if err != nil {
		return nil, err
	}

	expenses, err := m.GetExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return SortExpenses(filter.Apply(expenses), mode), nil
}

func (m *Manager) Dashboard(ctx context.Context, month, category string) (Summary, error) {
	if err := (Filter{Month: month}).Validate(); err != nil {
		return Summary{}, err
	}
	if _, err := m.requireSession(ctx); err != nil {
		return Summary{}, err
	}

	expenses, err := m.GetExpenses(ctx)
	if err != nil {
		return Summary{}, err
	}
	budget, err := m.GetBudget(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(expenses, budget, month, category, m.now()), nil
}

func (m *Manager) GetCards(ctx context.Context) ([]Card, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, ok := m.session.Current(ctx)
	if !ok {
		return []Card{}, nil
	}

	cards, err := m.repo.ListCards(ctx, user.ID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to list cards in Manager.GetCards() | Error: %v", traceID, err)
		return []Card{}, nil
	}
	return cards, nil
}

func (m *Manager) AddCard(ctx context.Context, newCard NewCard) (Card, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	user, err := m.requireSession(ctx)
	if err != nil {
		return Card{}, err
	}

	c := Card{
		UserID:    user.ID,
		Holder:    strings.TrimSpace(newCard.Holder),
		Number:    strings.TrimSpace(newCard.Number),
		Expiry:    strings.TrimSpace(newCard.Expiry),
		Brand:     strings.TrimSpace(newCard.Brand),
		CreatedAt: m.now(),
	}

	added, err := m.repo.AddCard(ctx, c)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save card in Manager.AddCard() | Error: %v", traceID, err)
		return Card{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the card, try again later.",
		}
	}
	return added, nil
}
