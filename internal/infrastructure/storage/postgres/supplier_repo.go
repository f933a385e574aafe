package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/catalog/supplier"
)

const suppliersTable = "suppliers"

var supplierColumns = []string{
	"id", "company_id", "name", "contact_person", "phone", "email", "address",
	"gst_number", "payment_terms", "notes",
	"is_active", "created_at", "updated_at",
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewSupplierRepo creates a supplier repository.
func NewSupplierRepo(txManager *TxManager) *SupplierRepo {
	return &SupplierRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Insert(suppliersTable).
		Columns(supplierColumns...).
		Values(
			s.ID, s.CompanyID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address,
			s.GSTNumber, s.PaymentTerms, s.Notes,
			s.IsActive, s.CreatedAt, s.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert supplier: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(supplierColumns...).
		From(suppliersTable).
		Where(squirrel.Eq{"id": supplierID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select supplier: %w", err)
	}

	var s supplier.Supplier
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", supplierID)
		}
		return nil, apperror.NewPersistence(err)
	}
	return &s, nil
}

func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(suppliersTable).
		Set("name", s.Name).
		Set("contact_person", s.ContactPerson).
		Set("phone", s.Phone).
		Set("email", s.Email).
		Set("address", s.Address).
		Set("gst_number", s.GSTNumber).
		Set("payment_terms", s.PaymentTerms).
		Set("notes", s.Notes).
		Set("is_active", s.IsActive).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update supplier: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("supplier", s.ID)
	}
	return nil
}

func (r *SupplierRepo) List(ctx context.Context, filter supplier.ListFilter) ([]*supplier.Supplier, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(supplierColumns...).
		From(suppliersTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name ASC")

	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select suppliers: %w", err)
	}

	var out []*supplier.Supplier
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}
