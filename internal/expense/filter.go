package expense

import (
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/validation"
)

// Filter narrows a list by month ("2024-03") and exact category. Empty fields match
// everything.
type Filter struct {
	Month    string
	Category string
}

func (f Filter) Validate() error {
	errs := validation.Errors{}
	if f.Month != "" {
		if _, err := time.Parse(MonthLayout, f.Month); err != nil {
			errs.Add("month", "Month must look like 2024-03")
		}
	}
	return errs.Err()
}

func (f Filter) Apply(expenses []Expense) []Expense {
	return FilterByCategory(FilterByMonth(expenses, f.Month), f.Category)
}

func FilterByMonth(expenses []Expense, month string) []Expense {
	if month == "" {
		return expenses
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if strings.HasPrefix(e.Date, month) {
			out = append(out, e)
		}
	}
	return out
}

func FilterByCategory(expenses []Expense, category string) []Expense {
	if category == "" {
		return expenses
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// ParseSort normalizes an empty mode to date-desc and rejects unknown ones.
func ParseSort(mode string) (string, error) {
	if mode == "" {
		return SortDateDesc, nil
	}
	if !ValidSortMode(mode) {
		return "", appErrors.Invalid("Unknown sort order.", map[string]string{
			"sort": "Sort must be one of date-desc, date-asc, amount-desc, amount-asc",
		})
	}
	return mode, nil
}
