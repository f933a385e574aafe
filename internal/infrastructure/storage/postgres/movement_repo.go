package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/ledger"
)

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "product_id", "kind", "delta", "batch_number", "reference_id", "reason", "created_at",
}

// MovementRepo implements ledger.Repository. The table is append-only;
// rows carry no company column and are scoped through the owning product.
type MovementRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates a stock movement repository.
func NewMovementRepo(txManager *TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MovementRepo) Create(ctx context.Context, m *ledger.StockMovement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(m.ID, m.ProductID, m.Kind, m.Delta, m.BatchNumber, m.ReferenceID, m.Reason, m.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert movement: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *MovementRepo) companyGuard(ctx context.Context) (squirrel.Sqlizer, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	return squirrel.Expr(
		"EXISTS (SELECT 1 FROM products p WHERE p.id = "+movementsTable+".product_id AND p.company_id = ?)",
		companyID,
	), nil
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID id.ID, filter ledger.MovementFilter) ([]*ledger.StockMovement, error) {
	guard, err := r.companyGuard(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(guard).
		OrderBy("created_at DESC", "id DESC")

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
		return nil, fmt.Errorf("build select movements: %w", err)
	}

	var out []*ledger.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}

func (r *MovementRepo) SumDeltas(ctx context.Context, productID id.ID) (int, error) {
	guard, err := r.companyGuard(ctx)
	if err != nil {
		return 0, err
	}

	q := r.builder.Select("COALESCE(SUM(delta), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(guard)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum deltas: %w", err)
	}

	var sum int
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &sum, sql, args...); err != nil {
		return 0, apperror.NewPersistence(err)
	}
	return sum, nil
}
