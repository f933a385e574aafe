package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/purchases"
)

const (
	purchasesTable     = "purchases"
	purchaseLinesTable = "purchase_lines"
)

var purchaseColumns = []string{
	"id", "company_id", "supplier_id", "purchase_number", "purchase_date", "supplier_invoice",
	"subtotal", "tax_amount", "discount_amount", "total_amount",
	"payment_status", "payment_date", "notes",
	"created_at", "updated_at",
}

var purchaseLineColumns = []string{
	"id", "purchase_id", "product_id", "batch_number", "expiry_date",
	"quantity", "unit_cost", "tax_percentage", "tax_amount", "total_amount",
}

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(txManager *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PurchaseRepo) Create(ctx context.Context, purchase *purchases.Purchase) error {
	q := r.builder.Insert(purchasesTable).
		Columns(purchaseColumns...).
		Values(
			purchase.ID, purchase.CompanyID, purchase.SupplierID,
			purchase.PurchaseNumber, purchase.PurchaseDate, purchase.SupplierInvoice,
			purchase.Subtotal, purchase.TaxAmount, purchase.DiscountAmount, purchase.TotalAmount,
			purchase.PaymentStatus, purchase.PaymentDate, purchase.Notes,
			purchase.CreatedAt, purchase.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert purchase: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}

	if len(purchase.Lines) == 0 {
		return nil
	}
	lq := r.builder.Insert(purchaseLinesTable).Columns(purchaseLineColumns...)
	for _, line := range purchase.Lines {
		lq = lq.Values(
			line.ID, line.PurchaseID, line.ProductID, line.BatchNumber, line.ExpiryDate,
			line.Quantity, line.UnitCost, line.TaxPercentage, line.TaxAmount, line.TotalAmount,
		)
	}
	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert purchase lines: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": purchaseID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select purchase: %w", err)
	}

	var purchase purchases.Purchase
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &purchase, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", purchaseID)
		}
		return nil, apperror.NewPersistence(err)
	}

	lq := r.builder.Select(purchaseLineColumns...).
		From(purchaseLinesTable).
		Where(squirrel.Eq{"purchase_id": purchase.ID}).
		OrderBy("id ASC")
	sql, args, err = lq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select purchase lines: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &purchase.Lines, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return &purchase, nil
}

func (r *PurchaseRepo) ExistsPurchaseNumber(ctx context.Context, number string) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("1").
		From(purchasesTable).
		Where(squirrel.Eq{"company_id": companyID, "purchase_number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists purchase number: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, apperror.NewPersistence(err)
	}
	return true, nil
}

func (r *PurchaseRepo) SetPaymentStatus(ctx context.Context, purchaseID id.ID, status string, paidAt *time.Time) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(purchasesTable).
		Set("payment_status", status).
		Set("payment_date", paidAt).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": purchaseID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set payment status: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase", purchaseID)
	}
	return nil
}

func (r *PurchaseRepo) List(ctx context.Context, filter purchases.ListFilter) ([]purchases.Purchase, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("purchase_date DESC")

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"payment_status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"purchase_number": pattern},
			squirrel.ILike{"supplier_invoice": pattern},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"purchase_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"purchase_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select purchases: %w", err)
	}

	var out []purchases.Purchase
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}
