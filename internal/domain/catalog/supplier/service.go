package supplier

import (
	"context"

	"medistock/internal/core/id"
	"medistock/pkg/logger"
)

// Service provides supplier registry operations.
type Service struct {
	repo Repository
}

// NewService creates a supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return err
	}
	logger.Info(ctx, "supplier created", "id", sup.ID, "name", sup.Name)
	return nil
}

// Get loads a supplier, tenant-scoped.
func (s *Service) Get(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// List returns suppliers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Supplier, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}
