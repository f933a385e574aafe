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
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/customer"
)

const customersTable = "customers"

var customerColumns = []string{
	"id", "company_id", "name", "phone", "email", "address", "gst_number",
	"credit_limit", "current_balance",
	"is_active", "created_at", "updated_at",
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(txManager *TxManager) *CustomerRepo {
	return &CustomerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := r.builder.Insert(customersTable).
		Columns(customerColumns...).
		Values(
			c.ID, c.CompanyID, c.Name, c.Phone, c.Email, c.Address, c.GSTNumber,
			c.CreditLimit, c.CurrentBalance,
			c.IsActive, c.CreatedAt, c.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert customer: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(customerColumns...).
		From(customersTable).
		Where(squirrel.Eq{"id": customerID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select customer: %w", err)
	}

	var c customer.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID)
		}
		return nil, apperror.NewPersistence(err)
	}
	return &c, nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(customersTable).
		Set("name", c.Name).
		Set("phone", c.Phone).
		Set("email", c.Email).
		Set("address", c.Address).
		Set("gst_number", c.GSTNumber).
		Set("credit_limit", c.CreditLimit).
		Set("is_active", c.IsActive).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update customer: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", c.ID)
	}
	return nil
}

func (r *CustomerRepo) List(ctx context.Context, filter customer.ListFilter) ([]*customer.Customer, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(customerColumns...).
		From(customersTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name ASC")

	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select customers: %w", err)
	}

	var out []*customer.Customer
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}

// AdjustBalance applies a signed delta atomically at the database; callers
// run it inside the transaction of the sale, payment or return causing it.
func (r *CustomerRepo) AdjustBalance(ctx context.Context, customerID id.ID, delta types.Money) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(customersTable).
		Set("current_balance", squirrel.Expr("current_balance + ?", delta)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": customerID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build adjust balance: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", customerID)
	}
	return nil
}
