package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStoreUnavailable marks a transient content-store failure. Retrieval
	// strategies degrade to empty results when they see it; it only becomes
	// a hard error when every strategy failed.
	ErrStoreUnavailable = errors.New("content store unavailable")
	// ErrIndexNotReady is returned before the first index build completes.
	ErrIndexNotReady = errors.New("search index not ready")
	// ErrInvalidQuery marks malformed query input (bad coordinates, negative
	// radius, unknown sort mode).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrLocationMissing marks an item without a location in a geospatial
	// operation. Such items are silently excluded, never surfaced to callers.
	ErrLocationMissing = errors.New("location missing")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal error")
	ErrTimeout         = errors.New("operation timed out")
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

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrIndexNotReady), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsTransient reports whether err is a degradable failure: one a retrieval
// strategy absorbs by returning an empty result instead of aborting the call.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrIndexNotReady) ||
		errors.Is(err, ErrTimeout)
}
