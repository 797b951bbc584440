package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Enqueue surfaces this to callers so they can apply their own backoff;
	// the consumer loop treats it as retryable plumbing failure.
	ErrUnavailable = errors.New("store unavailable")

	// ErrSerialization is returned when an entity cannot be encoded or
	// decoded for storage. Check the wrapped error for details.
	ErrSerialization = errors.New("serialization failed")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrCacheMiss indicates that no unexpired cache entry exists for the key.
	ErrCacheMiss = fmt.Errorf("%w: cache entry", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailableError checks if the error indicates an unreachable store.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
