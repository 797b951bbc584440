package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/store"
	"github.com/0xM4sk/researcher/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "task not found", err: store.ErrTaskNotFound, want: http.StatusNotFound},
		{name: "query too short", err: domain.ErrQueryTooShort, want: http.StatusBadRequest},
		{name: "invalid source", err: domain.ErrInvalidSource, want: http.StatusBadRequest},
		{name: "queue full", err: task.ErrQueueFull, want: http.StatusServiceUnavailable},
		{name: "queue closed", err: task.ErrQueueClosed, want: http.StatusServiceUnavailable},
		{name: "store unavailable", err: store.ErrUnavailable, want: http.StatusServiceUnavailable},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
	assert.Equal(t, "Service is busy, try again later", GetSafeErrorMessage(task.ErrQueueFull))

	// Validation errors describe the caller's own request and pass through.
	assert.Equal(t, domain.ErrQueryTooShort.Error(), GetSafeErrorMessage(domain.ErrQueryTooShort))

	// Internal details never leak.
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
