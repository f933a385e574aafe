package product

import (
	"context"
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Repository defines tenant-scoped product persistence. Every method takes
// the company from context and must filter by it; a row belonging to
// another company is reported as not found.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetForUpdate loads the product with a row lock. Callers must be
	// inside a transaction; the lock serializes concurrent quantity
	// changes on the same product.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)

	Update(ctx context.Context, p *Product) error

	// SetQuantity writes the materialized on-hand count and touches
	// updated_at. Only the stock ledger and reconciliation call this.
	SetQuantity(ctx context.Context, productID id.ID, quantity int, updatedAt time.Time) error

	// SetBatchInfo applies the last-purchase-wins overwrite of the current
	// batch, expiry and purchase price.
	SetBatchInfo(ctx context.Context, productID id.ID, batchNumber string, expiryDate time.Time, purchasePrice types.Money) error

	// Deactivate soft-deletes the product. Historical movements stay valid;
	// new transactions are rejected by the ledger.
	Deactivate(ctx context.Context, productID id.ID) error

	ExistsSKU(ctx context.Context, sku string) (bool, error)
	ExistsBarcode(ctx context.Context, barcode string) (bool, error)

	List(ctx context.Context, filter ListFilter) ([]*Product, error)

	// LowStock returns active products at or below their minimum stock level.
	LowStock(ctx context.Context) ([]*Product, error)

	// Expiring returns active products whose batch expires on or before the
	// given date.
	Expiring(ctx context.Context, before time.Time) ([]*Product, error)
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string // matches name, generic name, sku, barcode
	Category   string
	OnlyActive bool
	Limit      int
	Offset     int
}
