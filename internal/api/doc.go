// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the research pipeline, translating HTTP concerns to queue and store
// operations.
package api
