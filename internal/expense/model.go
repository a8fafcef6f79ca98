package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatali-fataliyev/expense_manager/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	// AllMonths asks the history view for every month instead of the current one.
	AllMonths = "all"

	MAX_LENGTH_TITLE       = 255
	MAX_LENGTH_DESCRIPTION = 1000
)

// MaxAmount caps a single price or budget.
var MaxAmount = decimal.New(1, 12)

type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewExpense is an expense as submitted, before it is stamped with an owner.
type NewExpense struct {
	Title       string
	Price       string
	Category    string
	Date        string
	Description string
}

// Validate checks the fields and returns the parsed price.
func (n NewExpense) Validate() (decimal.Decimal, error) {
	errs := validation.Errors{}

	errs.Check(validation.Required(n.Title), "title", "Title is required")
	errs.Check(len(n.Title) <= MAX_LENGTH_TITLE, "title", fmt.Sprintf("Title is too long, maximum length is %d", MAX_LENGTH_TITLE))

	var price decimal.Decimal
	errs.Check(validation.Required(n.Price), "price", "Amount is required")
	if validation.IsNumber(n.Price) {
		parsed, err := decimal.NewFromString(strings.TrimSpace(n.Price))
		if err != nil {
			errs.Add("price", "Amount must be a number")
		} else {
			price = parsed
			errs.Check(price.IsPositive(), "price", "Amount must be greater than zero")
			errs.Check(price.LessThanOrEqual(MaxAmount), "price", "Amount is too large")
		}
	} else {
		errs.Add("price", "Amount must be a number")
	}

	errs.Check(validation.Required(n.Category), "category", "Category is required")

	errs.Check(validation.Required(n.Date), "date", "Date is required")
	if _, err := time.Parse(DateLayout, n.Date); err != nil {
		errs.Add("date", "Date must look like 2024-03-15")
	}

	errs.Check(len(n.Description) <= MAX_LENGTH_DESCRIPTION, "description", fmt.Sprintf("Description is too long, maximum length is %d", MAX_LENGTH_DESCRIPTION))

	if err := errs.Err(); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// Card is a demo wallet entry. Nothing about it is validated against a real network.
type Card struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Holder    string    `json:"holder"`
	Number    string    `json:"number"`
	Expiry    string    `json:"expiry"`
	Brand     string    `json:"brand"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewCard struct {
	Holder string
	Number string
	Expiry string
	Brand  string
}

// MaskedNumber keeps the first and last four digits, e.g. "4111 **** **** 1111".
func (c Card) MaskedNumber() string {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.Number)

	runes := []rune(digits)
	if len(runes) < 8 {
		return digits
	}
	return string(runes[:4]) + " **** **** " + string(runes[len(runes)-4:])
}

type Category struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

const fallbackIcon = "💰"

var Categories = []Category{
	{Name: "Food", Icon: "🍔"},
	{Name: "Groceries", Icon: "🛒"},
	{Name: "Dining", Icon: "🍽️"},
	{Name: "Transport", Icon: "🚌"},
	{Name: "Fuel", Icon: "⛽"},
	{Name: "Travel", Icon: "✈️"},
	{Name: "Shopping", Icon: "🛍️"},
	{Name: "Clothes", Icon: "👕"},
	{Name: "Gadgets", Icon: "📱"},
	{Name: "Movies", Icon: "🎬"},
	{Name: "Bills", Icon: "📄"},
	{Name: "Rent", Icon: "🏠"},
	{Name: "Utilities", Icon: "💡"},
	{Name: "Health", Icon: "💊"},
	{Name: "Fitness", Icon: "💪"},
	{Name: "Education", Icon: "📚"},
	{Name: "Insurance", Icon: "🛡️"},
	{Name: "Other", Icon: "📝"},
}

var categoryIcons = func() map[string]string {
	icons := make(map[string]string, len(Categories))
	for _, c := range Categories {
		icons[c.Name] = c.Icon
	}
	return icons
}()

// CategoryIcon looks the category up by exact name.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return fallbackIcon
}
