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
	"medistock/internal/domain/alerts"
)

const alertsTable = "alerts"

var alertColumns = []string{
	"id", "company_id", "product_id", "rule_name", "severity", "message",
	"created_at", "acknowledged_at",
}

// AlertRepo implements alerts.Repository.
type AlertRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewAlertRepo creates an alert repository.
func NewAlertRepo(txManager *TxManager) *AlertRepo {
	return &AlertRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *AlertRepo) Create(ctx context.Context, alert *alerts.Alert) error {
	q := r.builder.Insert(alertsTable).
		Columns(alertColumns...).
		Values(
			alert.ID, alert.CompanyID, alert.ProductID, alert.RuleName, alert.Severity, alert.Message,
			alert.CreatedAt, alert.AcknowledgedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert alert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, alertID id.ID) (*alerts.Alert, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(alertColumns...).
		From(alertsTable).
		Where(squirrel.Eq{"id": alertID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select alert: %w", err)
	}

	var alert alerts.Alert
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &alert, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("alert", alertID)
		}
		return nil, apperror.NewPersistence(err)
	}
	return &alert, nil
}

func (r *AlertRepo) ExistsOpen(ctx context.Context, productID id.ID, ruleName string) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("1").
		From(alertsTable).
		Where(squirrel.Eq{
			"company_id":      companyID,
			"product_id":      productID,
			"rule_name":       ruleName,
			"acknowledged_at": nil,
		}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists open alert: %w", err)
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

func (r *AlertRepo) Acknowledge(ctx context.Context, alertID id.ID) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(alertsTable).
		Set("acknowledged_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": alertID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build acknowledge alert: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("alert", alertID)
	}
	return nil
}

func (r *AlertRepo) List(ctx context.Context, filter alerts.ListFilter) ([]alerts.Alert, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(alertColumns...).
		From(alertsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("created_at DESC")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.RuleName != "" {
		q = q.Where(squirrel.Eq{"rule_name": filter.RuleName})
	}
	if filter.OnlyOpen {
		q = q.Where(squirrel.Eq{"acknowledged_at": nil})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select alerts: %w", err)
	}

	var out []alerts.Alert
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}
