package alerts

import (
	"context"

	"medistock/internal/core/id"
)

// Repository persists raised alerts.
type Repository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, alertID id.ID) (*Alert, error)

	// ExistsOpen reports whether the product already has an
	// unacknowledged alert for the rule. Keeps the scanner from raising
	// duplicates on every pass.
	ExistsOpen(ctx context.Context, productID id.ID, ruleName string) (bool, error)

	Acknowledge(ctx context.Context, alertID id.ID) error
	List(ctx context.Context, filter ListFilter) ([]Alert, error)
}
