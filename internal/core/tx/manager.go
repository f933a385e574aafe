// Package tx defines the transaction management contract.
// Domain services depend on this interface; the PostgreSQL implementation
// lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back; otherwise it
	// is committed. Nested calls reuse the transaction already in context,
	// so a ledger adjustment invoked from a sale engine joins the sale's
	// atomic scope rather than opening its own.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RetryableManager extends Manager with bounded retry on serialization
// conflicts. Engines use it so two operations contending for the same
// product row serialize instead of surfacing transient failures.
type RetryableManager interface {
	Manager

	// RunWithRetry behaves like RunInTransaction but retries fn a bounded
	// number of times when the store reports a serialization or deadlock
	// conflict. fn must therefore be idempotent up to the commit point.
	RunWithRetry(ctx context.Context, fn func(ctx context.Context) error) error
}
