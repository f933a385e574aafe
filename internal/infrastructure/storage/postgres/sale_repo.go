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
	"medistock/internal/domain/sales"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var saleColumns = []string{
	"id", "company_id", "customer_id", "invoice_number", "invoice_date",
	"customer_name", "customer_phone",
	"subtotal", "tax_amount", "discount_amount", "total_amount",
	"payment_method", "payment_status", "notes",
	"is_cancelled", "cancellation_reason",
	"created_at", "updated_at",
}

var saleLineColumns = []string{
	"id", "sale_id", "product_id", "batch_number",
	"quantity", "unit_price", "tax_percentage", "tax_amount", "discount_amount", "total_amount",
}

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txManager *TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	q := r.builder.Insert(salesTable).
		Columns(saleColumns...).
		Values(
			sale.ID, sale.CompanyID, sale.CustomerID, sale.InvoiceNumber, sale.InvoiceDate,
			sale.CustomerName, sale.CustomerPhone,
			sale.Subtotal, sale.TaxAmount, sale.DiscountAmount, sale.TotalAmount,
			sale.PaymentMethod, sale.PaymentStatus, sale.Notes,
			sale.IsCancelled, sale.CancellationReason,
			sale.CreatedAt, sale.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert sale: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}

	if len(sale.Lines) == 0 {
		return nil
	}
	lq := r.builder.Insert(saleLinesTable).Columns(saleLineColumns...)
	for _, line := range sale.Lines {
		lq = lq.Values(
			line.ID, line.SaleID, line.ProductID, line.BatchNumber,
			line.Quantity, line.UnitPrice, line.TaxPercentage, line.TaxAmount, line.DiscountAmount, line.TotalAmount,
		)
	}
	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert sale lines: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *SaleRepo) getByID(ctx context.Context, saleID id.ID, forUpdate bool) (*sales.Sale, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID, "company_id": companyID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sale: %w", err)
	}

	var sale sales.Sale
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, apperror.NewPersistence(err)
	}

	if err := r.loadLines(ctx, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *SaleRepo) loadLines(ctx context.Context, sale *sales.Sale) error {
	q := r.builder.Select(saleLineColumns...).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": sale.ID}).
		OrderBy("id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build select sale lines: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &sale.Lines, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.getByID(ctx, saleID, false)
}

// GetForUpdate locks the header; cancellation and returns against the same
// invoice queue behind it.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.getByID(ctx, saleID, true)
}

func (r *SaleRepo) ExistsInvoiceNumber(ctx context.Context, number string) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("1").
		From(salesTable).
		Where(squirrel.Eq{"company_id": companyID, "invoice_number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists invoice number: %w", err)
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

func (r *SaleRepo) MarkCancelled(ctx context.Context, saleID id.ID, reason string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(salesTable).
		Set("is_cancelled", true).
		Set("cancellation_reason", reason).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": saleID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build mark cancelled: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}

func (r *SaleRepo) SetPaymentStatus(ctx context.Context, saleID id.ID, status string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(salesTable).
		Set("payment_status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": saleID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set payment status: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID)
	}
	return nil
}

func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("invoice_date DESC")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_number": pattern},
			squirrel.ILike{"customer_name": pattern},
			squirrel.ILike{"customer_phone": pattern},
		})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"invoice_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"invoice_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sales: %w", err)
	}

	var out []sales.Sale
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}
