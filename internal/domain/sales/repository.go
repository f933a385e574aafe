package sales

import (
	"context"

	"medistock/internal/core/id"
)

// Repository persists invoice headers and lines.
type Repository interface {
	// Create stores the header and all lines. Must run inside the
	// transaction that records the stock movements.
	Create(ctx context.Context, sale *Sale) error

	// GetByID loads a sale with its lines.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate locks the header row for cancellation.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// ExistsInvoiceNumber reports whether the number is already taken
	// within the company.
	ExistsInvoiceNumber(ctx context.Context, number string) (bool, error)

	// MarkCancelled sets the cancellation flag and reason.
	MarkCancelled(ctx context.Context, saleID id.ID, reason string) error

	// SetPaymentStatus updates the payment status of a sale.
	SetPaymentStatus(ctx context.Context, saleID id.ID, status string) error

	List(ctx context.Context, filter ListFilter) ([]Sale, error)
}
