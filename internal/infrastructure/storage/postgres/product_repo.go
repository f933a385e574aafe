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
	"medistock/internal/domain/catalog/product"
)

const productsTable = "products"

var productColumns = []string{
	"id", "company_id", "name", "generic_name", "brand", "category", "manufacturer",
	"sku", "barcode",
	"purchase_price", "selling_price", "mrp", "tax_percentage",
	"batch_number", "expiry_date",
	"quantity", "minimum_stock_level", "reorder_level",
	"prescription_required", "description",
	"is_active", "created_at", "updated_at",
}

// ProductRepo implements product.Repository. Every query is scoped by the
// company carried in context.
type ProductRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.CompanyID, p.Name, p.GenericName, p.Brand, p.Category, p.Manufacturer,
			p.SKU, p.Barcode,
			p.PurchasePrice, p.SellingPrice, p.MRP, p.TaxPercentage,
			p.BatchNumber, p.ExpiryDate,
			p.Quantity, p.MinimumStockLevel, p.ReorderLevel,
			p.PrescriptionRequired, p.Description,
			p.IsActive, p.CreatedAt, p.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert product: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewPersistence(err)
	}
	return nil
}

func (r *ProductRepo) getByID(ctx context.Context, productID id.ID, forUpdate bool) (*product.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID, "company_id": companyID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select product: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, apperror.NewPersistence(err)
	}
	return &p, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getByID(ctx, productID, false)
}

// GetForUpdate locks the row; concurrent stock changes on the same product
// queue behind it.
func (r *ProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getByID(ctx, productID, true)
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(productsTable).
		Set("name", p.Name).
		Set("generic_name", p.GenericName).
		Set("brand", p.Brand).
		Set("category", p.Category).
		Set("manufacturer", p.Manufacturer).
		Set("sku", p.SKU).
		Set("barcode", p.Barcode).
		Set("purchase_price", p.PurchasePrice).
		Set("selling_price", p.SellingPrice).
		Set("mrp", p.MRP).
		Set("tax_percentage", p.TaxPercentage).
		Set("minimum_stock_level", p.MinimumStockLevel).
		Set("reorder_level", p.ReorderLevel).
		Set("prescription_required", p.PrescriptionRequired).
		Set("description", p.Description).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID, "company_id": companyID})

	return r.execExpectingRow(ctx, q, "product", p.ID)
}

func (r *ProductRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int, updatedAt time.Time) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(productsTable).
		Set("quantity", quantity).
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"id": productID, "company_id": companyID})

	return r.execExpectingRow(ctx, q, "product", productID)
}

func (r *ProductRepo) SetBatchInfo(ctx context.Context, productID id.ID, batchNumber string, expiryDate time.Time, purchasePrice types.Money) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(productsTable).
		Set("batch_number", batchNumber).
		Set("expiry_date", expiryDate).
		Set("purchase_price", purchasePrice).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": productID, "company_id": companyID})

	return r.execExpectingRow(ctx, q, "product", productID)
}

func (r *ProductRepo) Deactivate(ctx context.Context, productID id.ID) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	q := r.builder.Update(productsTable).
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": productID, "company_id": companyID})

	return r.execExpectingRow(ctx, q, "product", productID)
}

func (r *ProductRepo) ExistsSKU(ctx context.Context, sku string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"sku": sku})
}

func (r *ProductRepo) ExistsBarcode(ctx context.Context, barcode string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"barcode": barcode})
}

func (r *ProductRepo) exists(ctx context.Context, cond squirrel.Eq) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("1").
		From(productsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(cond).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists product: %w", err)
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

func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("name ASC")

	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"generic_name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMany(ctx, q)
}

func (r *ProductRepo) LowStock(ctx context.Context) ([]*product.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"company_id": companyID, "is_active": true}).
		Where("quantity <= minimum_stock_level").
		OrderBy("name ASC")

	return r.selectMany(ctx, q)
}

func (r *ProductRepo) Expiring(ctx context.Context, before time.Time) ([]*product.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"company_id": companyID, "is_active": true}).
		Where(squirrel.LtOrEq{"expiry_date": before}).
		OrderBy("expiry_date ASC")

	return r.selectMany(ctx, q)
}

func (r *ProductRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*product.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select products: %w", err)
	}

	var out []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, apperror.NewPersistence(err)
	}
	return out, nil
}

func (r *ProductRepo) execExpectingRow(ctx context.Context, q squirrel.UpdateBuilder, entity string, entityID id.ID) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", entity, err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewPersistence(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, entityID)
	}
	return nil
}
