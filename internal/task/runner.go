package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the consumer loop.
type RunnerConfig struct {
	// PopTimeout bounds each blocking wait for the next descriptor so the
	// loop stays responsive to shutdown.
	PopTimeout time.Duration

	// TaskTimeout is the execution deadline applied to each handler
	// invocation. Zero disables the deadline.
	TaskTimeout time.Duration

	// StoreRetryBaseDelay is the initial delay after a store failure in the
	// loop's own plumbing.
	StoreRetryBaseDelay time.Duration

	// StoreRetryMaxDelay caps the plumbing retry delay.
	StoreRetryMaxDelay time.Duration

	// StoreRetryAttempts is the failure budget before the loop escalates
	// its logging. The loop itself never terminates on store errors.
	StoreRetryAttempts int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PopTimeout:          time.Second,
		TaskTimeout:         5 * time.Minute,
		StoreRetryBaseDelay: 500 * time.Millisecond,
		StoreRetryMaxDelay:  10 * time.Second,
		StoreRetryAttempts:  5,
	}
}

// Runner is the single consumer loop of the task queue. It pops
// descriptors, transitions their stored state to in_progress, invokes the
// handler registered for the task type, and records the terminal outcome.
//
// Exactly one Runner instance consumes a given queue; the pop itself is a
// channel receive, so a descriptor is never delivered twice within the
// process.
type Runner struct {
	queue    QueueReader
	store    StateStore
	handlers map[string]Handler
	config   RunnerConfig
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner with an explicit handler table. The table is
// fixed at construction; there is no runtime registration.
func NewRunner(
	queue QueueReader,
	store StateStore,
	handlers map[string]Handler,
	config RunnerConfig,
	logger *slog.Logger,
) *Runner {
	if config.PopTimeout <= 0 {
		config.PopTimeout = time.Second
	}
	if config.StoreRetryBaseDelay <= 0 {
		config.StoreRetryBaseDelay = 500 * time.Millisecond
	}
	if config.StoreRetryMaxDelay < config.StoreRetryBaseDelay {
		config.StoreRetryMaxDelay = 10 * time.Second
	}
	if config.StoreRetryAttempts <= 0 {
		config.StoreRetryAttempts = 5
	}

	// Copy the table so later mutation by the caller cannot add hidden
	// process-wide state.
	table := make(map[string]Handler, len(handlers))
	for taskType, handler := range handlers {
		table[taskType] = handler
	}

	return &Runner{
		queue:    queue,
		store:    store,
		handlers: table,
		config:   config,
		logger:   logger.With("component", "task_runner"),
	}
}

// Start launches the consumer loop. It returns immediately; use Stop for a
// graceful shutdown that lets an in-flight handler finish.
func (r *Runner) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.run(loopCtx)
}

// Stop signals the loop to exit and waits for the in-flight task, if any,
// to finish. The terminal state write for a running task always completes
// before Stop returns, so no task is left mid-transition.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// run is the consumer loop. Each iteration blocks for the next descriptor
// with a bounded timeout; on timeout it re-checks for cancellation and
// loops. Failures in the loop's own plumbing are logged and retried with
// backoff; they never terminate the loop.
func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	r.logger.Info("task runner started", "pop_timeout", r.config.PopTimeout)

	popTimer := time.NewTimer(r.config.PopTimeout)
	defer popTimer.Stop()

	backoff := newStoreBackoff(
		r.config.StoreRetryBaseDelay,
		r.config.StoreRetryMaxDelay,
		r.config.StoreRetryAttempts,
	)

	for {
		if !popTimer.Stop() {
			select {
			case <-popTimer.C:
			default:
			}
		}
		popTimer.Reset(r.config.PopTimeout)

		select {
		case <-ctx.Done():
			r.logger.Info("task runner stopping")
			return

		case <-popTimer.C:
			// Pop timeout: loop again so shutdown is observed promptly.
			continue

		case descriptor, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Info("task queue channel closed, stopping runner")
				return
			}
			r.process(ctx, descriptor, backoff)
		}
	}
}

// process runs one descriptor through its handler and records the outcome.
// The handler and the state writes run detached from the loop context so a
// graceful shutdown lets the in-flight task finish and record its outcome.
func (r *Runner) process(ctx context.Context, descriptor Descriptor, backoff *storeBackoff) {
	logger := r.logger.With(
		"task_id", descriptor.TaskID,
		"task_type", descriptor.Type,
	)
	taskCtx := context.WithoutCancel(ctx)

	handler, ok := r.handlers[descriptor.Type]
	if !ok {
		// Unregistered task types are dropped without a status update.
		// This is deliberate: they are not part of the handler contract.
		logger.Warn("no handler registered for task type, dropping task")
		return
	}

	state, err := r.store.GetState(taskCtx, descriptor.TaskID)
	if err != nil {
		r.plumbingFailure(ctx, backoff, logger, "failed to load task state", err)
		return
	}

	if err := state.TransitionTo(StatusInProgress); err != nil {
		logger.Error("refusing to start task in unexpected state",
			"status", state.Status, "error", err)
		return
	}
	if err := r.store.SaveState(taskCtx, state); err != nil {
		r.plumbingFailure(ctx, backoff, logger, "failed to mark task in progress", err)
		return
	}
	backoff.Success()

	logger.Info("processing task")
	result, handlerErr := r.invoke(taskCtx, handler, descriptor.Payload)

	if handlerErr != nil {
		logger.Error("task execution failed", "error", handlerErr)
		state.Error = handlerErr.Error()
		if err := state.TransitionTo(StatusFailed); err != nil {
			logger.Error("failed to transition task to failed", "error", err)
			return
		}
	} else {
		state.Data[ResultKey] = result
		if err := state.TransitionTo(StatusCompleted); err != nil {
			logger.Error("failed to transition task to completed", "error", err)
			return
		}
		logger.Info("task completed")
	}

	// The terminal write is retried in place: losing it would strand the
	// task in in_progress with no owner.
	for {
		err := r.store.SaveState(taskCtx, state)
		if err == nil {
			backoff.Success()
			return
		}

		delay := backoff.Failure()
		if backoff.GaveUp() {
			logger.Error("store unreachable recording task outcome, still retrying",
				"consecutive_failures", backoff.Failures(),
				"retry_in", delay,
				"error", err)
		} else {
			logger.Warn("failed to record task outcome, retrying",
				"consecutive_failures", backoff.Failures(),
				"retry_in", delay,
				"error", err)
		}

		select {
		case <-ctx.Done():
			logger.Error("shutdown before task outcome could be recorded")
			return
		case <-time.After(delay):
		}
	}
}

// invoke runs the handler under the configured per-task deadline.
func (r *Runner) invoke(ctx context.Context, handler Handler, payload json.RawMessage) (any, error) {
	if r.config.TaskTimeout > 0 {
		taskCtx, cancel := context.WithTimeout(ctx, r.config.TaskTimeout)
		defer cancel()
		return handler(taskCtx, payload)
	}
	return handler(ctx, payload)
}

// plumbingFailure logs a store failure in the loop's own plumbing and
// sleeps the backoff delay. The descriptor is abandoned; the caller will
// observe the task as stuck pending and may re-enqueue.
func (r *Runner) plumbingFailure(
	ctx context.Context,
	backoff *storeBackoff,
	logger *slog.Logger,
	message string,
	err error,
) {
	delay := backoff.Failure()
	if backoff.GaveUp() {
		logger.Error(message+", store failure budget exhausted, still retrying",
			"consecutive_failures", backoff.Failures(),
			"retry_in", delay,
			"error", err)
	} else {
		logger.Warn(message,
			"consecutive_failures", backoff.Failures(),
			"retry_in", delay,
			"error", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
