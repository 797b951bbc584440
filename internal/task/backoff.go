package task

import "time"

// backoffState names the phases of the store-error recovery machine.
type backoffState string

const (
	backoffConnected backoffState = "connected"
	backoffRetrying  backoffState = "retrying"
	backoffGaveUp    backoffState = "gave_up"
)

// storeBackoff is an explicit reconnect-with-backoff state machine for the
// consumer loop's store plumbing. While the store keeps failing, delays grow
// exponentially up to maxDelay; after maxAttempts the machine enters the
// gave-up state, which keeps retrying at maxDelay but signals callers to
// escalate their logging. A success resets the machine to connected.
type storeBackoff struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int

	state    backoffState
	failures int
}

func newStoreBackoff(baseDelay, maxDelay time.Duration, maxAttempts int) *storeBackoff {
	return &storeBackoff{
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
		maxAttempts: maxAttempts,
		state:       backoffConnected,
	}
}

// Failure records a store failure and returns how long the loop should wait
// before the next attempt.
func (b *storeBackoff) Failure() time.Duration {
	b.failures++
	if b.failures >= b.maxAttempts {
		b.state = backoffGaveUp
		return b.maxDelay
	}
	b.state = backoffRetrying

	delay := b.baseDelay << (b.failures - 1)
	if delay > b.maxDelay {
		delay = b.maxDelay
	}
	return delay
}

// Success resets the machine to the connected state.
func (b *storeBackoff) Success() {
	b.state = backoffConnected
	b.failures = 0
}

// GaveUp reports whether the failure budget is exhausted. The loop never
// exits on this; it only raises the log level.
func (b *storeBackoff) GaveUp() bool {
	return b.state == backoffGaveUp
}

// Failures returns the consecutive failure count, for logging.
func (b *storeBackoff) Failures() int {
	return b.failures
}
