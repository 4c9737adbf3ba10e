package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
	ErrUnavailable  = errors.New("service unavailable")
)

// Load errors abort ingestion.
var (
	ErrMalformedXML      = errors.New("malformed xml")
	ErrUnreadableInput   = errors.New("unreadable input")
	ErrDTD               = errors.New("unresolvable dtd")
	ErrPersonWithoutName = errors.New("person record without name")
)

// Query errors.
var (
	ErrRedirectLoop     = errors.New("redirect chain exceeds hop limit")
	ErrDanglingRedirect = errors.New("no crossref target")
	ErrMissingCrossref  = errors.New("missing crossref field")
	ErrNotAPersonKey    = errors.New("not a person key")
	ErrNilPerson        = errors.New("person must not be nil")
	ErrCommunityIndex   = errors.New("community index out of range")
	ErrUnknownIDKind    = errors.New("unknown id kind")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Is and As are re-exported so callers importing this package under the
// name "errors" keep the standard helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDanglingRedirect):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNilPerson),
		errors.Is(err, ErrCommunityIndex),
		errors.Is(err, ErrUnknownIDKind),
		errors.Is(err, ErrNotAPersonKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrRedirectLoop), errors.Is(err, ErrMissingCrossref):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
