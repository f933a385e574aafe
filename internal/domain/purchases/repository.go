package purchases

import (
	"context"
	"time"

	"medistock/internal/core/id"
)

// Repository persists purchase headers and lines.
type Repository interface {
	// Create stores the header and all lines inside the receiving
	// transaction.
	Create(ctx context.Context, purchase *Purchase) error

	// GetByID loads a purchase with its lines.
	GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// ExistsPurchaseNumber reports whether the number is already taken
	// within the company.
	ExistsPurchaseNumber(ctx context.Context, number string) (bool, error)

	// SetPaymentStatus records settlement of the supplier invoice.
	SetPaymentStatus(ctx context.Context, purchaseID id.ID, status string, paidAt *time.Time) error

	List(ctx context.Context, filter ListFilter) ([]Purchase, error)
}
