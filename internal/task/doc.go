// Package task manages background job queuing, processing, and lifecycle.
// It provides the FIFO task queue, the durable task-state store contract,
// and the single-consumer runner loop that hands tasks to registered
// handlers and records their outcome.
package task
