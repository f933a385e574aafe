package purchases

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/core/tx"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/pricing"
	"medistock/pkg/logger"
	"medistock/pkg/refnum"
)

// Service implements the purchase engine: goods receipts and supplier
// payment tracking.
type Service struct {
	purchases Repository
	products  product.Repository
	ledger    *ledger.Service
	refnum    *refnum.Generator
	txManager tx.RetryableManager
}

// NewService creates a purchase engine.
func NewService(
	purchases Repository,
	products product.Repository,
	ledgerSvc *ledger.Service,
	numbers *refnum.Generator,
	txManager tx.RetryableManager,
) *Service {
	return &Service{
		purchases: purchases,
		products:  products,
		ledger:    ledgerSvc,
		refnum:    numbers,
		txManager: txManager,
	}
}

// CreatePurchase records a goods receipt, increments stock for every line
// and overwrites each product's current batch, expiry and purchase price
// with the received values. When a product appears on multiple lines the
// last line wins the overwrite.
func (s *Service) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*Purchase, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var purchase *Purchase
	err = s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		number, err := s.refnum.Next(ctx, refnum.PrefixPurchase, s.purchases.ExistsPurchaseNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		status := req.PaymentStatus
		if status == "" {
			status = StatusPending
		}
		purchase = &Purchase{
			ID:              id.New(),
			CompanyID:       companyID,
			SupplierID:      req.SupplierID,
			PurchaseNumber:  number,
			PurchaseDate:    now,
			SupplierInvoice: req.SupplierInvoice,
			PaymentStatus:   status,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		lineTotals := make([]pricing.LineTotals, 0, len(req.Lines))
		for _, in := range req.Lines {
			p, err := s.products.GetByID(ctx, in.ProductID)
			if err != nil {
				return err
			}

			totals, err := pricing.Line(pricing.LineInput{
				UnitPrice:     in.UnitCost,
				Quantity:      in.Quantity,
				Discount:      types.Zero(),
				TaxPercentage: p.TaxPercentage,
			}, req.Taxed())
			if err != nil {
				return err
			}
			lineTotals = append(lineTotals, totals)

			purchase.Lines = append(purchase.Lines, PurchaseLine{
				ID:            id.New(),
				PurchaseID:    purchase.ID,
				ProductID:     p.ID,
				BatchNumber:   in.BatchNumber,
				ExpiryDate:    in.ExpiryDate,
				Quantity:      in.Quantity,
				UnitCost:      types.Round2(in.UnitCost),
				TaxPercentage: p.TaxPercentage,
				TaxAmount:     totals.Tax,
				TotalAmount:   totals.Total,
			})
		}

		doc, err := pricing.Document(lineTotals, req.Discount)
		if err != nil {
			return err
		}
		purchase.Subtotal = doc.Subtotal
		purchase.TaxAmount = doc.TaxAmount
		purchase.DiscountAmount = doc.DiscountAmount
		purchase.TotalAmount = doc.GrandTotal

		if err := s.purchases.Create(ctx, purchase); err != nil {
			return err
		}

		for _, line := range purchase.Lines {
			_, err := s.ledger.Adjust(ctx, ledger.AdjustRequest{
				ProductID:   line.ProductID,
				Delta:       line.Quantity,
				Kind:        ledger.KindPurchase,
				BatchNumber: line.BatchNumber,
				ReferenceID: &purchase.ID,
				Reason:      "Purchase " + purchase.PurchaseNumber,
			})
			if err != nil {
				return err
			}
			if err := s.products.SetBatchInfo(ctx, line.ProductID, line.BatchNumber, line.ExpiryDate, line.UnitCost); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"purchase_id", purchase.ID,
		"purchase_number", purchase.PurchaseNumber,
		"total", purchase.TotalAmount,
		"lines", len(purchase.Lines),
	)
	return purchase, nil
}

// RecordPayment marks the supplier invoice settled.
func (s *Service) RecordPayment(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	var purchase *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.purchases.GetByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase.PaymentStatus == StatusPaid {
			return apperror.NewValidation("purchase is already paid").
				WithDetail("purchase_number", purchase.PurchaseNumber)
		}

		now := time.Now().UTC()
		if err := s.purchases.SetPaymentStatus(ctx, purchase.ID, StatusPaid, &now); err != nil {
			return err
		}
		purchase.PaymentStatus = StatusPaid
		purchase.PaymentDate = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase paid",
		"purchase_id", purchase.ID,
		"purchase_number", purchase.PurchaseNumber,
	)
	return purchase, nil
}

// GetPurchase loads one receipt with its lines.
func (s *Service) GetPurchase(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return s.purchases.GetByID(ctx, purchaseID)
}

// ListPurchases returns receipts matching the filter, newest first.
func (s *Service) ListPurchases(ctx context.Context, filter ListFilter) ([]Purchase, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.purchases.List(ctx, filter)
}

func (s *Service) validateCreate(req CreatePurchaseRequest) error {
	if len(req.Lines) == 0 {
		return apperror.NewValidation("purchase requires at least one line").WithDetail("field", "lines")
	}
	if req.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").WithDetail("field", "discount")
	}
	switch req.PaymentStatus {
	case "", StatusPending, StatusPaid, StatusPartial:
	default:
		return apperror.NewValidation("unknown payment status").WithDetail("payment_status", req.PaymentStatus)
	}
	for i, line := range req.Lines {
		lineNo := i + 1
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", lineNo)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost must not be negative").WithDetail("line", lineNo)
		}
		if line.BatchNumber == "" || line.ExpiryDate.IsZero() {
			return apperror.NewMissingBatchInfo(lineNo)
		}
	}
	return nil
}
