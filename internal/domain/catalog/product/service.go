package product

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/pkg/logger"
)

// Service provides catalog operations for products. Stock quantity is not
// touched here; that belongs to the ledger.
type Service struct {
	repo Repository
}

// NewService creates a product catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new product after checking SKU/barcode uniqueness.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	taken, err := s.repo.ExistsSKU(ctx, p.SKU)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	if p.Barcode != "" {
		taken, err = s.repo.ExistsBarcode(ctx, p.Barcode)
		if err != nil {
			return err
		}
		if taken {
			return apperror.NewDuplicate("product", "barcode", p.Barcode)
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// Get loads a product by id, tenant-scoped.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Update persists catalog field changes.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	p.Touch()
	return s.repo.Update(ctx, p)
}

// Deactivate soft-deletes a product. It remains visible in movement
// history but the ledger rejects new transactions against it.
func (s *Service) Deactivate(ctx context.Context, productID id.ID) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, productID); err != nil {
		return err
	}

	logger.Info(ctx, "product deactivated", "id", productID)
	return nil
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// LowStock returns active products at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context) ([]*Product, error) {
	return s.repo.LowStock(ctx)
}

// Expiring returns active products whose batch expires within the window.
func (s *Service) Expiring(ctx context.Context, within time.Duration) ([]*Product, error) {
	return s.repo.Expiring(ctx, time.Now().UTC().Add(within))
}
