package supplier

import (
	"context"

	"medistock/internal/core/id"
)

// Repository defines tenant-scoped supplier persistence.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
	List(ctx context.Context, filter ListFilter) ([]*Supplier, error)
}

// ListFilter narrows supplier listings.
type ListFilter struct {
	Search     string
	OnlyActive bool
	Limit      int
	Offset     int
}
