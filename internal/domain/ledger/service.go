package ledger

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tx"
	"medistock/internal/domain/catalog/product"
	"medistock/pkg/logger"
)

// Service is the single point through which a product quantity changes.
// Transaction engines call Adjust inside their own transaction; the manual
// adjustment path opens one itself.
type Service struct {
	movements Repository
	products  product.Repository
	txManager tx.RetryableManager
}

// NewService creates a stock ledger service.
func NewService(movements Repository, products product.Repository, txManager tx.RetryableManager) *Service {
	return &Service{
		movements: movements,
		products:  products,
		txManager: txManager,
	}
}

// Adjust applies a signed delta to one product and appends the movement
// explaining it. Runs in the caller's transaction when one is active;
// nested RunInTransaction joins it, so a sale's adjustments share the
// sale's atomic scope.
//
// The product row is locked before the check so a concurrent Adjust on the
// same product cannot race the insufficient-stock check.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*StockMovement, error) {
	if err := validateAdjust(req); err != nil {
		return nil, err
	}

	var movement *StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		if !p.IsActive && !req.AllowInactive {
			return apperror.NewProductInactive(p.ID.String())
		}

		newQty := p.Quantity + req.Delta
		if newQty < 0 {
			return apperror.NewInsufficientStock(p.ID.String(), -req.Delta, p.Quantity)
		}

		now := time.Now().UTC()
		if err := s.products.SetQuantity(ctx, p.ID, newQty, now); err != nil {
			return err
		}

		movement = &StockMovement{
			ID:          id.New(),
			ProductID:   p.ID,
			Kind:        req.Kind,
			Delta:       req.Delta,
			BatchNumber: req.BatchNumber,
			ReferenceID: req.ReferenceID,
			Reason:      req.Reason,
			CreatedAt:   now,
		}
		return s.movements.Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}

// AdjustStock is the manual adjustment entry point (stock-take corrections,
// breakage). It opens its own transaction with conflict retry.
func (s *Service) AdjustStock(ctx context.Context, productID id.ID, delta int, reason string) (*StockMovement, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero").WithDetail("field", "delta")
	}
	if reason == "" {
		return nil, apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}

	var movement *StockMovement
	err := s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		m, err := s.Adjust(ctx, AdjustRequest{
			ProductID: productID,
			Delta:     delta,
			Kind:      KindAdjustment,
			Reason:    reason,
		})
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"product_id", productID,
		"delta", delta,
		"movement_id", movement.ID,
	)
	return movement, nil
}

// ListMovements returns the movement history for a product. Inactive
// products remain queryable; history outlives the catalog entry.
func (s *Service) ListMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]*StockMovement, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.movements.ListByProduct(ctx, productID, filter)
}

// Reconcile recomputes the quantity implied by the movement history.
// Audit/repair path, not the hot path. The materialized product quantity
// is untouched; compare the result against Product.Quantity to detect
// drift.
func (s *Service) Reconcile(ctx context.Context, productID id.ID) (int, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return 0, err
	}
	return s.movements.SumDeltas(ctx, productID)
}

// Repair resets the materialized quantity to the ledger sum. The ledger is
// the source of truth, so repair changes only the cache and records no
// movement.
func (s *Service) Repair(ctx context.Context, productID id.ID) (int, error) {
	var qty int
	err := s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		qty, err = s.movements.SumDeltas(ctx, productID)
		if err != nil {
			return err
		}
		if qty == p.Quantity {
			return nil
		}

		logger.Warn(ctx, "repairing drifted stock quantity",
			"product_id", productID,
			"materialized", p.Quantity,
			"ledger", qty,
		)
		return s.products.SetQuantity(ctx, productID, qty, time.Now().UTC())
	})
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func validateAdjust(req AdjustRequest) error {
	if id.IsNil(req.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if req.Delta == 0 {
		return apperror.NewValidation("delta must not be zero").WithDetail("field", "delta")
	}
	if !req.Kind.Valid() {
		return apperror.NewValidation("unknown movement kind").WithDetail("field", "kind")
	}
	return nil
}
