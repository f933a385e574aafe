package returns

import (
	"context"

	"medistock/internal/core/id"
)

// Repository persists credit note entries.
type Repository interface {
	// Create stores one return entry inside the processing transaction.
	Create(ctx context.Context, ret *Return) error

	GetByID(ctx context.Context, returnID id.ID) (*Return, error)

	// ExistsCreditNoteNumber reports whether the number is already taken
	// within the company.
	ExistsCreditNoteNumber(ctx context.Context, number string) (bool, error)

	// SumReturnedForSaleLine totals the quantity already returned against
	// one product of one sale. Read inside the processing transaction so
	// concurrent returns cannot both pass the remaining-quantity check.
	SumReturnedForSaleLine(ctx context.Context, saleID, productID id.ID) (int, error)

	// SumReturnedForPurchaseLine totals the quantity already sent back
	// against one product and batch of one purchase.
	SumReturnedForPurchaseLine(ctx context.Context, purchaseID, productID id.ID, batchNumber string) (int, error)

	List(ctx context.Context, filter ListFilter) ([]Return, error)
}
