package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	recentLimit      = 5
	trendWeeks       = 4
	monthOptionCount = 12
)

var hundred = decimal.NewFromInt(100)

type CategoryTotal struct {
	Category string          `json:"category"`
	Icon     string          `json:"icon"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// TrendPoint is one week of the cumulative spending line.
type TrendPoint struct {
	Label  string          `json:"label"`
	Spent  decimal.Decimal `json:"spent"`
	Budget decimal.Decimal `json:"budget"`
}

type MonthOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type BudgetStatus struct {
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage int64           `json:"percentage"`
	Progress   float64         `json:"progress"`
	OverBudget bool            `json:"overBudget"`
}

type Summary struct {
	Month        string          `json:"month"`
	MonthLabel   string          `json:"monthLabel"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	Count        int             `json:"count"`
	Budget       BudgetStatus    `json:"budget"`
	Categories   []CategoryTotal `json:"categories"`
	Recent       []Expense       `json:"recent"`
	Trend        []TrendPoint    `json:"trend"`
	MonthOptions []MonthOption   `json:"monthOptions"`
	Category     string          `json:"category,omitempty"`
	Drilldown    []Expense       `json:"drilldown,omitempty"`
}

func Total(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Price)
	}
	return total
}

func NewBudgetStatus(budget, spent decimal.Decimal) BudgetStatus {
	status := BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
	}
	if budget.IsPositive() {
		pct := spent.Div(budget).Mul(hundred)
		status.Percentage = pct.Round(0).IntPart()
		status.Progress = decimal.Min(pct, hundred).Round(2).InexactFloat64()
	}
	status.OverBudget = status.Remaining.IsNegative()
	return status
}

// CategoryTotals groups by category in order of first appearance.
func CategoryTotals(expenses []Expense) []CategoryTotal {
	index := make(map[string]int)
	totals := []CategoryTotal{}
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, CategoryTotal{Category: e.Category, Icon: CategoryIcon(e.Category), Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(e.Price)
		totals[i].Count++
	}
	return totals
}

// WeeklyTrend accumulates spending over the four weeks of a month. Days 29 to 31
// count towards the fourth week.
func WeeklyTrend(monthExpenses []Expense, budget decimal.Decimal) []TrendPoint {
	weekly := make([]decimal.Decimal, trendWeeks)
	for i := range weekly {
		weekly[i] = decimal.Zero
	}
	for _, e := range monthExpenses {
		day, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			continue
		}
		week := (day.Day() - 1) / 7
		if week >= trendWeeks {
			week = trendWeeks - 1
		}
		weekly[week] = weekly[week].Add(e.Price)
	}

	points := make([]TrendPoint, trendWeeks)
	running := decimal.Zero
	for i := range weekly {
		running = running.Add(weekly[i])
		points[i] = TrendPoint{
			Label:  weekLabels[i],
			Spent:  running,
			Budget: budget,
		}
	}
	return points
}

var weekLabels = [trendWeeks]string{"Week 1", "Week 2", "Week 3", "Week 4"}

// MonthOptions lists the current month and the eleven before it, newest first.
func MonthOptions(now time.Time) []MonthOption {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	options := make([]MonthOption, 0, monthOptionCount)
	for i := 0; i < monthOptionCount; i++ {
		m := first.AddDate(0, -i, 0)
		options = append(options, MonthOption{
			Value: m.Format(MonthLayout),
			Label: m.Format(monthLabelLayout),
		})
	}
	return options
}

// Summarize builds the dashboard for month from a date-descending expense list.
// category, when set, selects the drill-down list.
func Summarize(expenses []Expense, budget decimal.Decimal, month, category string, now time.Time) Summary {
	if month == "" {
		month = now.Format(MonthLayout)
	}

	monthly := FilterByMonth(expenses, month)
	total := Total(monthly)

	recent := monthly
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	summary := Summary{
		Month:        month,
		MonthLabel:   MonthLabel(month),
		TotalSpent:   total,
		Count:        len(monthly),
		Budget:       NewBudgetStatus(budget, total),
		Categories:   CategoryTotals(monthly),
		Recent:       append([]Expense{}, recent...),
		Trend:        WeeklyTrend(monthly, budget),
		MonthOptions: MonthOptions(now),
	}
	if category != "" {
		summary.Category = category
		summary.Drilldown = FilterByCategory(monthly, category)
	}
	return summary
}
