package expense

import (
	"sort"
)

const (
	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortAmountDesc = "amount-desc"
	SortAmountAsc  = "amount-asc"
)

// SortExpenses returns a sorted copy. Equal keys keep their input order; an unknown
// mode returns the input order unchanged.
func SortExpenses(expenses []Expense, mode string) []Expense {
	sorted := make([]Expense, len(expenses))
	copy(sorted, expenses)

	var less func(a, b Expense) bool
	switch mode {
	case SortDateDesc:
		less = func(a, b Expense) bool { return a.Date > b.Date }
	case SortDateAsc:
		less = func(a, b Expense) bool { return a.Date < b.Date }
	case SortAmountDesc:
		less = func(a, b Expense) bool { return a.Price.GreaterThan(b.Price) }
	case SortAmountAsc:
		less = func(a, b Expense) bool { return a.Price.LessThan(b.Price) }
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func ValidSortMode(mode string) bool {
	switch mode {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return true
	}
	return false
}
