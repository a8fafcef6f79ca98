package customErrors

import (
	"errors"
	"fmt"
)

const (
	ErrNotFound     = "NOT FOUND"
	ErrInvalidInput = "INVALID INPUT"
	ErrAuth         = "UNAUTHORIZED"
	ErrAccessDenied = "ACCESS DENIED"
	ErrConflict     = "CONFLICT"
	ErrTooMany      = "TOO MANY REQUESTS"
	ErrInternal     = "INTERNAL"
)

const MsgUnexpected = "An unexpected error occurred"

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

// Is matches on Code only, so errors.Is(err, ErrorResponse{Code: ErrConflict}) works
// through any amount of wrapping.
func (e ErrorResponse) Is(target error) bool {
	t, ok := target.(ErrorResponse)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code string, message string) error {
	return ErrorResponse{Code: code, Message: message}
}

func Invalid(message string, fields map[string]string) error {
	return ErrorResponse{Code: ErrInvalidInput, Message: message, Fields: fields}
}

// CodeOf returns the code of the first ErrorResponse in err's chain, or ErrInternal.
func CodeOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Public returns the message safe to show to the caller. Anything that is not an
// ErrorResponse, or is an internal one, collapses to MsgUnexpected.
func Public(err error) ErrorResponse {
	var appErr ErrorResponse
	if errors.As(err, &appErr) && appErr.Code != ErrInternal {
		return appErr
	}
	return ErrorResponse{Code: ErrInternal, Message: MsgUnexpected}
}
