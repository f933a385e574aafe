package ledger

import (
	"context"

	"medistock/internal/core/id"
)

// Repository persists stock movements. Movements are append-only; there is
// no update or delete.
type Repository interface {
	// Create appends one movement. Must run inside the same transaction as
	// the product quantity write it explains.
	Create(ctx context.Context, m *StockMovement) error

	// ListByProduct returns the movement history, newest first.
	ListByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]*StockMovement, error)

	// SumDeltas recomputes the quantity implied by the full history.
	SumDeltas(ctx context.Context, productID id.ID) (int, error)
}
