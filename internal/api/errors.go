package api

import (
	"errors"
	"net/http"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/store"
	"github.com/0xM4sk/researcher/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error types
// or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrQueryTooShort),
		errors.Is(err, domain.ErrQueryTooLong),
		errors.Is(err, domain.ErrNoSources),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidMaxResults),
		errors.Is(err, domain.ErrInvalidSearchDepth),
		errors.Is(err, domain.ErrInvalidMinRelevance),
		errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull):
		return http.StatusServiceUnavailable

	case errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrQueryTooShort),
		errors.Is(err, domain.ErrQueryTooLong),
		errors.Is(err, domain.ErrNoSources),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidMaxResults),
		errors.Is(err, domain.ErrInvalidSearchDepth),
		errors.Is(err, domain.ErrInvalidMinRelevance),
		errors.Is(err, domain.ErrInvalidDateRange):
		return err.Error()

	case errors.Is(err, task.ErrQueueFull):
		return "Service is busy, try again later"

	case errors.Is(err, task.ErrQueueClosed):
		return "Service is shutting down"

	case errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}
