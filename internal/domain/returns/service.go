package returns

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
	"medistock/internal/domain/purchases"
	"medistock/internal/domain/sales"
	"medistock/pkg/logger"
	"medistock/pkg/refnum"
)

// Service implements the return processor. Sale returns restock goods and
// refund proportional tax; purchase returns send goods back and release
// stock.
type Service struct {
	returns   Repository
	sales     sales.Repository
	purchases purchases.Repository
	products  product.Repository
	customers customer.Repository
	ledger    *ledger.Service
	refnum    *refnum.Generator
	txManager tx.RetryableManager
}

// NewService creates a return processor.
func NewService(
	returns Repository,
	salesRepo sales.Repository,
	purchasesRepo purchases.Repository,
	products product.Repository,
	customers customer.Repository,
	ledgerSvc *ledger.Service,
	numbers *refnum.Generator,
	txManager tx.RetryableManager,
) *Service {
	return &Service{
		returns:   returns,
		sales:     salesRepo,
		purchases: purchasesRepo,
		products:  products,
		customers: customers,
		ledger:    ledgerSvc,
		refnum:    numbers,
		txManager: txManager,
	}
}

// ReturnSaleLine takes back a quantity of one product sold on an invoice.
// The refund is the line's unit price times the quantity plus the line tax
// prorated over the returned share. Quantities returned across multiple
// partial returns may never exceed the quantity sold. An empty refund mode
// means cash.
func (s *Service) ReturnSaleLine(ctx context.Context, saleID, productID id.ID, quantity int, reason string, refundMode RefundMode) (*Return, error) {
	refundMode, err := normalizeRefundMode(refundMode)
	if err != nil {
		return nil, err
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var ret *Return
	err = s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		// Locking the header serializes concurrent returns against the
		// same invoice, so the remaining-quantity check cannot race.
		sale, err := s.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled {
			return apperror.NewAlreadyCancelled(sale.InvoiceNumber)
		}

		line, err := findSaleLine(sale, productID)
		if err != nil {
			return err
		}

		returned, err := s.returns.SumReturnedForSaleLine(ctx, sale.ID, productID)
		if err != nil {
			return err
		}
		remaining := line.Quantity - returned
		if quantity <= 0 || quantity > remaining {
			return apperror.NewInvalidReturnQuantity(productID.String(), quantity, remaining)
		}

		number, err := s.refnum.Next(ctx, refnum.PrefixCreditNote, s.returns.ExistsCreditNoteNumber)
		if err != nil {
			return err
		}

		ret, err = s.restockSaleLine(ctx, sale, line, quantity, number, reason, refundMode, companyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale return processed",
		"credit_note", ret.CreditNoteNumber,
		"sale_id", saleID,
		"product_id", productID,
		"quantity", quantity,
		"refund", ret.RefundAmount,
	)
	return ret, nil
}

// ReturnSaleFull takes back everything still outstanding on an invoice as
// one atomic operation under a single credit note number.
func (s *Service) ReturnSaleFull(ctx context.Context, saleID id.ID, reason string, refundMode RefundMode) ([]*Return, error) {
	refundMode, err := normalizeRefundMode(refundMode)
	if err != nil {
		return nil, err
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var rets []*Return
	err = s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		rets = nil

		sale, err := s.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled {
			return apperror.NewAlreadyCancelled(sale.InvoiceNumber)
		}

		number, err := s.refnum.Next(ctx, refnum.PrefixCreditNote, s.returns.ExistsCreditNoteNumber)
		if err != nil {
			return err
		}

		for i := range sale.Lines {
			line := &sale.Lines[i]
			returned, err := s.returns.SumReturnedForSaleLine(ctx, sale.ID, line.ProductID)
			if err != nil {
				return err
			}
			remaining := line.Quantity - returned
			if remaining <= 0 {
				continue
			}

			ret, err := s.restockSaleLine(ctx, sale, line, remaining, number, reason, refundMode, companyID)
			if err != nil {
				return err
			}
			rets = append(rets, ret)
		}

		if len(rets) == 0 {
			return apperror.NewValidation("nothing left to return on this invoice").
				WithDetail("invoice_number", sale.InvoiceNumber)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "full sale return processed",
		"credit_note", rets[0].CreditNoteNumber,
		"sale_id", saleID,
		"lines", len(rets),
	)
	return rets, nil
}

// restockSaleLine records one credit note entry, restocks the goods and
// reduces a credit customer's balance by the refund. Runs inside the
// caller's transaction.
func (s *Service) restockSaleLine(ctx context.Context, sale *sales.Sale, line *sales.SaleLine, quantity int, number, reason string, refundMode RefundMode, companyID id.ID) (*Return, error) {
	refund := saleRefund(line, quantity)

	ret := &Return{
		ID:               id.New(),
		CompanyID:        companyID,
		CreditNoteNumber: number,
		Kind:             KindSaleReturn,
		SaleID:           &sale.ID,
		ProductID:        line.ProductID,
		BatchNumber:      line.BatchNumber,
		Quantity:         quantity,
		RefundAmount:     refund,
		RefundMode:       refundMode,
		Reason:           reason,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.returns.Create(ctx, ret); err != nil {
		return nil, err
	}

	// Goods come back even when the product was deactivated meanwhile.
	_, err := s.ledger.Adjust(ctx, ledger.AdjustRequest{
		ProductID:     line.ProductID,
		Delta:         quantity,
		Kind:          ledger.KindReturn,
		BatchNumber:   line.BatchNumber,
		ReferenceID:   &ret.ID,
		Reason:        "Return against " + sale.InvoiceNumber,
		AllowInactive: true,
	})
	if err != nil {
		return nil, err
	}

	if sale.PaymentMethod == sales.PaymentCredit && sale.CustomerID != nil {
		if err := s.customers.AdjustBalance(ctx, *sale.CustomerID, refund.Neg()); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// ReturnPurchaseLine sends a quantity of one received batch back to the
// supplier, releasing it from stock. Fails when the goods are no longer on
// hand.
func (s *Service) ReturnPurchaseLine(ctx context.Context, purchaseID, productID id.ID, batchNumber string, quantity int, reason string) (*Return, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var ret *Return
	err = s.txManager.RunWithRetry(ctx, func(ctx context.Context) error {
		// The product row lock serializes concurrent returns of the same
		// batch; the sum check below reads under it.
		if _, err := s.products.GetForUpdate(ctx, productID); err != nil {
			return err
		}

		purchase, err := s.purchases.GetByID(ctx, purchaseID)
		if err != nil {
			return err
		}

		line, err := findPurchaseLine(purchase, productID, batchNumber)
		if err != nil {
			return err
		}

		returned, err := s.returns.SumReturnedForPurchaseLine(ctx, purchase.ID, productID, batchNumber)
		if err != nil {
			return err
		}
		remaining := line.Quantity - returned
		if quantity <= 0 || quantity > remaining {
			return apperror.NewInvalidReturnQuantity(productID.String(), quantity, remaining)
		}

		number, err := s.refnum.Next(ctx, refnum.PrefixCreditNote, s.returns.ExistsCreditNoteNumber)
		if err != nil {
			return err
		}

		ret = &Return{
			ID:               id.New(),
			CompanyID:        companyID,
			CreditNoteNumber: number,
			Kind:             KindPurchaseReturn,
			PurchaseID:       &purchase.ID,
			ProductID:        productID,
			BatchNumber:      batchNumber,
			Quantity:         quantity,
			RefundAmount:     purchaseRefund(line, quantity),
			Reason:           reason,
			CreatedAt:        time.Now().UTC(),
		}
		if err := s.returns.Create(ctx, ret); err != nil {
			return err
		}

		_, err = s.ledger.Adjust(ctx, ledger.AdjustRequest{
			ProductID:   productID,
			Delta:       -quantity,
			Kind:        ledger.KindReturn,
			BatchNumber: batchNumber,
			ReferenceID: &ret.ID,
			Reason:      "Return to supplier against " + purchase.PurchaseNumber,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase return processed",
		"credit_note", ret.CreditNoteNumber,
		"purchase_id", purchaseID,
		"product_id", productID,
		"quantity", quantity,
	)
	return ret, nil
}

// ListReturns returns credit note entries matching the filter, newest
// first.
func (s *Service) ListReturns(ctx context.Context, filter ListFilter) ([]Return, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.returns.List(ctx, filter)
}

// normalizeRefundMode applies the cash default and rejects unknown modes.
func normalizeRefundMode(mode RefundMode) (RefundMode, error) {
	if mode == "" {
		return RefundCash, nil
	}
	if !mode.Valid() {
		return "", apperror.NewValidation("unknown refund mode").WithDetail("refund_mode", string(mode))
	}
	return mode, nil
}

// saleRefund is the money owed back for a partial return: the unit price
// share plus the line tax prorated by quantity.
func saleRefund(line *sales.SaleLine, quantity int) types.Money {
	qty := types.MoneyFromInt(int64(quantity))
	lineQty := types.MoneyFromInt(int64(line.Quantity))
	refund := line.UnitPrice.Mul(qty).Add(line.TaxAmount.Mul(qty).Div(lineQty))
	return types.Round2(refund)
}

func purchaseRefund(line *purchases.PurchaseLine, quantity int) types.Money {
	qty := types.MoneyFromInt(int64(quantity))
	lineQty := types.MoneyFromInt(int64(line.Quantity))
	refund := line.UnitCost.Mul(qty).Add(line.TaxAmount.Mul(qty).Div(lineQty))
	return types.Round2(refund)
}

func findSaleLine(sale *sales.Sale, productID id.ID) (*sales.SaleLine, error) {
	for i := range sale.Lines {
		if sale.Lines[i].ProductID == productID {
			return &sale.Lines[i], nil
		}
	}
	return nil, apperror.NewNotFound("sale line", productID)
}

func findPurchaseLine(purchase *purchases.Purchase, productID id.ID, batchNumber string) (*purchases.PurchaseLine, error) {
	for i := range purchase.Lines {
		line := &purchase.Lines[i]
		if line.ProductID == productID && line.BatchNumber == batchNumber {
			return line, nil
		}
	}
	return nil, apperror.NewNotFound("purchase line", productID)
}
