package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/returns"
)

const returnsTable = "returns"

var returnColumns = []string{
	"id", "company_id", "credit_note_number", "kind",
	"sale_id", "purchase_id", "product_id", "batch_number",
	"quantity", "refund_amount", "refund_mode", "reason", "created_at",
}

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewReturnRepo creates a credit note repository.
func NewReturnRepo(txManager *TxManager) *ReturnRepo {
	return &ReturnRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ReturnRepo) Create(ctx context.Context, ret *returns.Return) error {
	q := r.builder.Insert(returnsTable).
		Columns(returnColumns...).
		Values(
			ret.ID, ret.CompanyID, ret.CreditNoteNumber, ret.Kind,
			ret.SaleID, ret.PurchaseID, ret.ProductID, ret.BatchNumber,
			ret.Quantity, ret.RefundAmount, ret.RefundMode, ret.Reason, ret.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert return: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *ReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(returnColumns...).
		From(returnsTable).
		Where(squirrel.Eq{"id": returnID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select return: %w", err)
	}

	var ret returns.Return
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ret, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return", returnID)
		}
		return nil, apperror.NewPersistence(err)
	}
	return &ret, nil
}

func (r *ReturnRepo) ExistsCreditNoteNumber(ctx context.Context, number string) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("1").
		From(returnsTable).
		Where(squirrel.Eq{"company_id": companyID, "credit_note_number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists credit note number: %w", err)
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

func (r *ReturnRepo) SumReturnedForSaleLine(ctx context.Context, saleID, productID id.ID) (int, error) {
	return r.sumReturned(ctx, squirrel.Eq{"sale_id": saleID, "product_id": productID})
}

func (r *ReturnRepo) SumReturnedForPurchaseLine(ctx context.Context, purchaseID, productID id.ID, batchNumber string) (int, error) {
	return r.sumReturned(ctx, squirrel.Eq{
		"purchase_id":  purchaseID,
		"product_id":   productID,
		"batch_number": batchNumber,
	})
}

func (r *ReturnRepo) sumReturned(ctx context.Context, cond squirrel.Eq) (int, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return 0, err
	}

	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(returnsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(cond)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum returned: %w", err)
	}

	var sum int
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &sum, sql, args...); err != nil {
		return 0, apperror.NewPersistence(err)
	}
	return sum, nil
}

func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) ([]returns.Return, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(returnColumns...).
		From(returnsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("created_at DESC")

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select returns: %w", err)
	}

	var out []returns.Return
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}
