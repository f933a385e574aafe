package alerts

import (
	"context"
	"fmt"
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/catalog/product"
	"medistock/pkg/logger"
)

// Service scans the catalog against the rule set and records matches.
type Service struct {
	alerts   Repository
	products product.Repository
	rules    []Rule
}

// NewService creates an alert service with the given compiled rules. Pass
// the result of CompileRules(DefaultRules()) for the stock conditions the
// system ships with.
func NewService(alerts Repository, products product.Repository, rules []Rule) *Service {
	return &Service{
		alerts:   alerts,
		products: products,
		rules:    rules,
	}
}

// Scan evaluates every rule against every active product and raises an
// alert for each new match. A product with an open alert for a rule is
// skipped for that rule. Returns the alerts raised by this pass.
func (s *Service) Scan(ctx context.Context) ([]*Alert, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx, product.ListFilter{OnlyActive: true, Limit: 10000})
	if err != nil {
		return nil, err
	}

	var raised []*Alert
	for _, p := range products {
		for _, rule := range s.rules {
			matched, err := rule.Matches(p)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}

			open, err := s.alerts.ExistsOpen(ctx, p.ID, rule.Name)
			if err != nil {
				return nil, err
			}
			if open {
				continue
			}

			alert := &Alert{
				ID:        id.New(),
				CompanyID: companyID,
				ProductID: p.ID,
				RuleName:  rule.Name,
				Severity:  rule.Severity,
				Message:   alertMessage(rule, p),
				CreatedAt: time.Now().UTC(),
			}
			if err := s.alerts.Create(ctx, alert); err != nil {
				return nil, err
			}
			raised = append(raised, alert)
		}
	}

	logger.Info(ctx, "alert scan finished",
		"products", len(products),
		"raised", len(raised),
	)
	return raised, nil
}

// Acknowledge closes an alert.
func (s *Service) Acknowledge(ctx context.Context, alertID id.ID) error {
	if _, err := s.alerts.GetByID(ctx, alertID); err != nil {
		return err
	}
	return s.alerts.Acknowledge(ctx, alertID)
}

// List returns alerts matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Alert, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.alerts.List(ctx, filter)
}

func alertMessage(rule Rule, p *product.Product) string {
	switch rule.Name {
	case "out_of_stock":
		return fmt.Sprintf("%s is out of stock", p.Name)
	case "low_stock":
		return fmt.Sprintf("%s is low on stock (%d left, minimum %d)", p.Name, p.Quantity, p.MinimumStockLevel)
	case "reorder":
		return fmt.Sprintf("%s reached its reorder level (%d left)", p.Name, p.Quantity)
	case "expired":
		return fmt.Sprintf("%s batch %s has expired", p.Name, p.BatchNumber)
	case "expiring_soon":
		days, _ := p.DaysToExpiry(time.Now().UTC())
		return fmt.Sprintf("%s batch %s expires in %d days", p.Name, p.BatchNumber, days)
	}
	return fmt.Sprintf("%s matched rule %s", p.Name, rule.Name)
}
