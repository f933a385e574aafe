package sales

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/core/tx"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/pricing"
	"medistock/pkg/logger"
	"medistock/pkg/refnum"
)

// Service implements the sale engine: invoice creation and cancellation.
type Service struct {
	sales     Repository
	products  product.Repository
	customers customer.Repository
	ledger    *ledger.Service
	refnum    *refnum.Generator
	txManager tx.RetryableManager
}

// NewService creates a sale engine.
func NewService(
	sales Repository,
	products product.Repository,
	customers customer.Repository,
	ledgerSvc *ledger.Service,
	numbers *refnum.Generator,
	txManager tx.RetryableManager,
) *Service {
	return &Service{
		sales:     sales,
		products:  products,
		customers: customers,
		ledger:    ledgerSvc,
		refnum:    numbers,
		txManager: txManager,
	}
}

// CreateSale records an invoice, decrements stock for every line and, for
// credit sales, raises the customer balance. All of it commits together or
// not at all; an insufficient-stock failure on the last line rolls back the
// whole invoice.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var sale *Sale
	err = s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		// Credit raises the customer's balance, so the account must still
		// be open. Reversals on cancel/return skip this check.
		if req.PaymentMethod == PaymentCredit {
			cust, err := s.customers.GetByID(ctx, *req.CustomerID)
			if err != nil {
				return err
			}
			if !cust.IsActive {
				return apperror.NewValidation("customer is inactive").
					WithDetail("customer_id", cust.ID)
			}
		}

		number, err := s.refnum.Next(ctx, refnum.PrefixInvoice, s.sales.ExistsInvoiceNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		sale = &Sale{
			ID:            id.New(),
			CompanyID:     companyID,
			CustomerID:    req.CustomerID,
			InvoiceNumber: number,
			InvoiceDate:   now,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: StatusPaid,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		lineTotals := make([]pricing.LineTotals, 0, len(req.Lines))
		for _, in := range req.Lines {
			p, err := s.products.GetByID(ctx, in.ProductID)
			if err != nil {
				return err
			}

			unitPrice := p.SellingPrice
			if in.UnitPriceOverride != nil {
				unitPrice = *in.UnitPriceOverride
			}

			totals, err := pricing.Line(pricing.LineInput{
				UnitPrice:     unitPrice,
				Quantity:      in.Quantity,
				Discount:      in.Discount,
				TaxPercentage: p.TaxPercentage,
			}, req.Taxed())
			if err != nil {
				return err
			}
			lineTotals = append(lineTotals, totals)

			sale.Lines = append(sale.Lines, SaleLine{
				ID:             id.New(),
				SaleID:         sale.ID,
				ProductID:      p.ID,
				BatchNumber:    p.BatchNumber,
				Quantity:       in.Quantity,
				UnitPrice:      types.Round2(unitPrice),
				TaxPercentage:  p.TaxPercentage,
				TaxAmount:      totals.Tax,
				DiscountAmount: types.Round2(in.Discount),
				TotalAmount:    totals.Total,
			})
		}

		doc, err := pricing.Document(lineTotals, req.Discount)
		if err != nil {
			return err
		}
		sale.Subtotal = doc.Subtotal
		sale.TaxAmount = doc.TaxAmount
		sale.DiscountAmount = doc.DiscountAmount
		sale.TotalAmount = doc.GrandTotal

		if req.PaymentMethod == PaymentCredit {
			sale.PaymentStatus = StatusPending
		}

		if err := s.sales.Create(ctx, sale); err != nil {
			return err
		}

		// Stock leaves after the header exists so movements can reference it.
		for _, line := range sale.Lines {
			_, err := s.ledger.Adjust(ctx, ledger.AdjustRequest{
				ProductID:   line.ProductID,
				Delta:       -line.Quantity,
				Kind:        ledger.KindSale,
				BatchNumber: line.BatchNumber,
				ReferenceID: &sale.ID,
				Reason:      "Sale " + sale.InvoiceNumber,
			})
			if err != nil {
				return err
			}
		}

		if req.PaymentMethod == PaymentCredit {
			return s.customers.AdjustBalance(ctx, *req.CustomerID, sale.TotalAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"sale_id", sale.ID,
		"invoice_number", sale.InvoiceNumber,
		"total", sale.TotalAmount,
		"lines", len(sale.Lines),
	)
	return sale, nil
}

// CancelSale voids an invoice and restores every line's stock with
// compensating movements. The caller's reason goes on the invoice; the
// movements carry the generated reversal note. Cancellation is terminal; a
// cancelled invoice cannot be cancelled again or returned against.
func (s *Service) CancelSale(ctx context.Context, saleID id.ID, reason string) (*Sale, error) {
	var sale *Sale
	err := s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled {
			return apperror.NewAlreadyCancelled(sale.InvoiceNumber)
		}

		movementReason := "Cancelled invoice " + sale.InvoiceNumber
		for _, line := range sale.Lines {
			// Restocks even deactivated products; the goods came back.
			_, err := s.ledger.Adjust(ctx, ledger.AdjustRequest{
				ProductID:     line.ProductID,
				Delta:         line.Quantity,
				Kind:          ledger.KindSale,
				BatchNumber:   line.BatchNumber,
				ReferenceID:   &sale.ID,
				Reason:        movementReason,
				AllowInactive: true,
			})
			if err != nil {
				return err
			}
		}

		if sale.PaymentMethod == PaymentCredit && sale.CustomerID != nil {
			if err := s.customers.AdjustBalance(ctx, *sale.CustomerID, sale.TotalAmount.Neg()); err != nil {
				return err
			}
		}

		if err := s.sales.MarkCancelled(ctx, sale.ID, reason); err != nil {
			return err
		}
		sale.IsCancelled = true
		sale.CancellationReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale cancelled",
		"sale_id", sale.ID,
		"invoice_number", sale.InvoiceNumber,
	)
	return sale, nil
}

// GetSale loads one invoice with its lines.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.sales.GetByID(ctx, saleID)
}

// ListSales returns invoices matching the filter, newest first.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.sales.List(ctx, filter)
}

func (s *Service) validateCreate(req CreateSaleRequest) error {
	if len(req.Lines) == 0 {
		return apperror.NewValidation("sale requires at least one line").WithDetail("field", "lines")
	}
	if !req.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").WithDetail("payment_method", string(req.PaymentMethod))
	}
	if req.PaymentMethod == PaymentCredit && req.CustomerID == nil {
		return apperror.NewValidation("credit sale requires a customer").WithDetail("field", "customerId")
	}
	if req.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").WithDetail("field", "discount")
	}
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i+1)
		}
		if line.Discount.IsNegative() {
			return apperror.NewValidation("line discount must not be negative").WithDetail("line", i+1)
		}
	}
	return nil
}
