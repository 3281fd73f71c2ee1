// Package apperr defines the error kinds services return to the transports.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
)

type Kind int

const (
	KindDatabase Kind = iota
	KindNotFound
	KindValidation
	KindRateLimited
)

const (
	CodeDatabase    = "DATABASE_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeValidation  = "VALIDATION_ERROR"
	CodeRateLimited = "TOO_MANY_REQUESTS"
	CodeInternal    = "INTERNAL_ERROR"
)

type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Details    interface{}
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Details: details}
}

func RateLimited(retryAfterSeconds int) *Error {
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 60
	}
	return &Error{
		Kind:       KindRateLimited,
		Code:       CodeRateLimited,
		Message:    "Too many requests",
		Details:    map[string]int{"retryAfter": retryAfterSeconds},
		RetryAfter: retryAfterSeconds,
	}
}

// DatabaseDetails is the diagnostic payload kept from the underlying
// data-source failure.
type DatabaseDetails struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func Database(message string, err error) *Error {
	return &Error{Kind: KindDatabase, Code: CodeDatabase, Message: message, Details: describe(err), Err: err}
}

func describe(err error) DatabaseDetails {
	if err == nil {
		return DatabaseDetails{Message: "Unknown error", Code: "UNKNOWN"}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return DatabaseDetails{
			Message: pgErr.Message,
			Code:    pgErr.Code,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
		}
	}
	return DatabaseDetails{Message: err.Error(), Code: "UNKNOWN"}
}

// As returns the *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == KindNotFound
}

// Boundary lets known kinds through untouched and re-wraps anything else as
// a database failure, so callers only ever see *Error.
func Boundary(message string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Database(message, err)
}

// RetryAfterHeader is the Retry-After value for rate-limited errors.
func (e *Error) RetryAfterHeader() string {
	return strconv.Itoa(e.RetryAfter)
}
