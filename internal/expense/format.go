package expense

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	currencySymbol    = "₹"
	displayDateLayout = "2 Jan 2006"
	monthLabelLayout  = "January 2006"
	allTimeLabel      = "All Time"
)

var currencyPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatCurrency renders an amount in rupees with Indian digit grouping, e.g. ₹1,23,456.00.
func FormatCurrency(amount decimal.Decimal) string {
	return formatAmount(amount, currencySymbol)
}

// FormatAmount is FormatCurrency without the symbol, for fonts that cannot draw it.
func FormatAmount(amount decimal.Decimal) string {
	return formatAmount(amount, "")
}

func formatAmount(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole, fraction, _ := strings.Cut(rounded.StringFixed(2), ".")
	// Only the rupee part goes through the printer so no digit is ever a float.
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = currencyPrinter.Sprint(number.Decimal(n))
	}
	return sign + symbol + whole + "." + fraction
}

// FormatDate turns "2024-03-15" into "15 Mar 2024". Unparseable input is returned as is.
func FormatDate(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}

// MonthLabel turns "2024-03" into "March 2024" and "" into "All Time".
func MonthLabel(month string) string {
	if month == "" {
		return allTimeLabel
	}
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return month
	}
	return t.Format(monthLabelLayout)
}
