package customer

import (
	"context"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tx"
	"medistock/internal/core/types"
	"medistock/pkg/logger"
)

// Service provides customer registry operations, including payment
// recording against credit balances.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a customer service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create registers a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	logger.Info(ctx, "customer created", "id", c.ID, "name", c.Name)
	return nil
}

// Get loads a customer, tenant-scoped.
func (s *Service) Get(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Customer, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// RecordPayment lowers the customer's credit balance by the paid amount.
// This is one of the three permitted balance mutations (the others happen
// inside sale creation and return processing).
func (s *Service) RecordPayment(ctx context.Context, customerID id.ID, amount types.Money) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, customerID); err != nil {
			return err
		}
		return s.repo.AdjustBalance(ctx, customerID, amount.Neg())
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "customer payment recorded",
		"customer_id", customerID,
		"amount", amount,
	)
	return nil
}
