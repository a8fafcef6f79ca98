package api

import (
	"encoding/json"
	"errors"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/expense"
	"github.com/shopspring/decimal"
)

// Amount keeps a submitted amount as text, so both 120.5 and "120.5" decode and
// validation can report "not a number" instead of a body error.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// REQUESTS START:
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateExpenseRequest struct {
	Title       string `json:"title"`
	Price       Amount `json:"price"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type BudgetRequest struct {
	Amount Amount `json:"amount"`
}

type CreateCardRequest struct {
	Holder string `json:"holder"`
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	Brand  string `json:"brand"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

//REQUESTS END:

//RESPONSES:

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionResponse struct {
	Message string             `json:"message,omitempty"`
	User    auth.SessionRecord `json:"user"`
}

// GuardResponse tells an anonymous client where to go instead.
type GuardResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type ExpenseItem struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"priceFormatted"`
	Category       string          `json:"category"`
	Icon           string          `json:"icon"`
	Date           string          `json:"date"`
	DateFormatted  string          `json:"dateFormatted"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      string          `json:"createdAt"`
}

type ListExpensesResponse struct {
	Expenses       []ExpenseItem   `json:"expenses"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
}

type HistoryResponse struct {
	Month          string          `json:"month"`
	MonthLabel     string          `json:"monthLabel"`
	Category       string          `json:"category"`
	Sort           string          `json:"sort"`
	Expenses       []ExpenseItem   `json:"expenses"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"totalFormatted"`
}

type BudgetResponse struct {
	Amount          decimal.Decimal `json:"amount"`
	AmountFormatted string          `json:"amountFormatted"`
}

type BudgetStatusItem struct {
	expense.BudgetStatus
	BudgetFormatted    string `json:"budgetFormatted"`
	SpentFormatted     string `json:"spentFormatted"`
	RemainingFormatted string `json:"remainingFormatted"`
}

type CategoryTotalItem struct {
	expense.CategoryTotal
	TotalFormatted string `json:"totalFormatted"`
}

type DashboardResponse struct {
	User                auth.SessionRecord    `json:"user"`
	Month               string                `json:"month"`
	MonthLabel          string                `json:"monthLabel"`
	TotalSpent          decimal.Decimal       `json:"totalSpent"`
	TotalSpentFormatted string                `json:"totalSpentFormatted"`
	Count               int                   `json:"count"`
	Budget              BudgetStatusItem      `json:"budget"`
	Categories          []CategoryTotalItem   `json:"categories"`
	Recent              []ExpenseItem         `json:"recent"`
	Trend               []expense.TrendPoint  `json:"trend"`
	MonthOptions        []expense.MonthOption `json:"monthOptions"`
	Category            string                `json:"category,omitempty"`
	Drilldown           []ExpenseItem         `json:"drilldown,omitempty"`
}

type CardItem struct {
	ID           string `json:"id"`
	Holder       string `json:"holder"`
	MaskedNumber string `json:"maskedNumber"`
	Expiry       string `json:"expiry"`
	Brand        string `json:"brand"`
}

type ListCardsResponse struct {
	Cards []CardItem `json:"cards"`
}

type ListCategoriesResponse struct {
	Categories []expense.Category `json:"categories"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}

func httpStatusFromError(err error) int {
	var appErr appErrors.ErrorResponse
	if !errors.As(err, &appErr) {
		return 500
	}
	switch appErr.Code {
	case appErrors.ErrNotFound:
		return 404 // not found
	case appErrors.ErrInvalidInput:
		return 400 // bad request
	case appErrors.ErrAuth:
		return 401 // unauthorized
	case appErrors.ErrAccessDenied:
		return 403 // access denied
	case appErrors.ErrConflict:
		return 409 // conflict
	case appErrors.ErrTooMany:
		return 429 // too many requests
	default:
		return 500 //internal error
	}
}

func ExpenseToHttp(e expense.Expense) ExpenseItem {
	item := ExpenseItem{
		ID:             e.ID,
		Title:          e.Title,
		Price:          e.Price,
		PriceFormatted: expense.FormatCurrency(e.Price),
		Category:       e.Category,
		Icon:           expense.CategoryIcon(e.Category),
		Date:           e.Date,
		DateFormatted:  expense.FormatDate(e.Date),
		Description:    e.Description,
	}
	if !e.CreatedAt.IsZero() {
		item.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return item
}

func ExpensesToHttp(expenses []expense.Expense) []ExpenseItem {
	items := make([]ExpenseItem, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, ExpenseToHttp(e))
	}
	return items
}

func CardToHttp(c expense.Card) CardItem {
	return CardItem{
		ID:           c.ID,
		Holder:       c.Holder,
		MaskedNumber: c.MaskedNumber(),
		Expiry:       c.Expiry,
		Brand:        c.Brand,
	}
}

func SummaryToHttp(user auth.SessionRecord, s expense.Summary) DashboardResponse {
	categories := make([]CategoryTotalItem, 0, len(s.Categories))
	for _, c := range s.Categories {
		categories = append(categories, CategoryTotalItem{
			CategoryTotal:  c,
			TotalFormatted: expense.FormatCurrency(c.Total),
		})
	}

	resp := DashboardResponse{
		User:                user,
		Month:               s.Month,
		MonthLabel:          s.MonthLabel,
		TotalSpent:          s.TotalSpent,
		TotalSpentFormatted: expense.FormatCurrency(s.TotalSpent),
		Count:               s.Count,
		Budget: BudgetStatusItem{
			BudgetStatus:       s.Budget,
			BudgetFormatted:    expense.FormatCurrency(s.Budget.Budget),
			SpentFormatted:     expense.FormatCurrency(s.Budget.Spent),
			RemainingFormatted: expense.FormatCurrency(s.Budget.Remaining),
		},
		Categories:   categories,
		Recent:       ExpensesToHttp(s.Recent),
		Trend:        s.Trend,
		MonthOptions: s.MonthOptions,
		Category:     s.Category,
	}
	if s.Drilldown != nil {
		resp.Drilldown = ExpensesToHttp(s.Drilldown)
	}
	return resp
}
