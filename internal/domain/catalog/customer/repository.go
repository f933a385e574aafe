package customer

import (
	"context"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Repository defines tenant-scoped customer persistence.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	List(ctx context.Context, filter ListFilter) ([]*Customer, error)

	// AdjustBalance applies a signed delta to the running credit balance.
	// Must be called inside the transaction of the sale, payment or return
	// that causes it so concurrent sales against the same customer cannot
	// lose updates.
	AdjustBalance(ctx context.Context, customerID id.ID, delta types.Money) error
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search     string // matches name, phone
	OnlyActive bool
	Limit      int
	Offset     int
}
