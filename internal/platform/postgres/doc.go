// Package postgres provides PostgreSQL-backed implementations of the
// persistence interfaces: the task state store consumed by the queue and
// runner, and the search result cache consumed by the fetch stage. All
// stores accept a store.DBTX so they run identically on a *sql.DB or
// inside a transaction.
package postgres
