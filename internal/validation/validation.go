// Package validation holds the field predicates used by request handlers and services.
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func Email(value string) bool {
	return emailRegex.MatchString(value)
}

// MinLength counts characters, not bytes.
func MinLength(value string, min int) bool {
	return utf8.RuneCountInString(value) >= min
}

func IsNumber(value string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Errors collects one message per field. The first message recorded for a field wins.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Check records message for field when ok is false.
func (e Errors) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

// Err returns nil when nothing was recorded, otherwise an invalid-input error that
// carries the per-field messages.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return appErrors.Invalid("Please correct the highlighted fields.", map[string]string(e))
}
