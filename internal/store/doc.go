// Package store defines shared persistence abstractions: the DBTX interface
// over database/sql connections and transactions, and the sentinel errors
// store implementations map driver failures onto.
package store
