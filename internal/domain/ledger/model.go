// Package ledger owns every change to a product's on-hand quantity.
//
// The movement history is the source of truth: the sum of all deltas for a
// product always equals its materialized quantity. No other code path may
// mutate product quantity.
package ledger

import (
	"time"

	"medistock/internal/core/id"
)

// Kind classifies a stock movement.
type Kind string

const (
	KindPurchase   Kind = "purchase"
	KindSale       Kind = "sale"
	KindAdjustment Kind = "adjustment"
	KindReturn     Kind = "return"
)

// Valid reports whether k is a known movement kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindSale, KindAdjustment, KindReturn:
		return true
	}
	return false
}

// StockMovement is an immutable audit record of one quantity change.
// Delta is signed: positive for stock entering the company, negative for
// stock leaving it.
type StockMovement struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Kind  Kind `db:"kind" json:"kind"`
	Delta int  `db:"delta" json:"delta"`

	BatchNumber string `db:"batch_number" json:"batchNumber,omitempty"`

	// ReferenceID points to the originating sale or purchase, when any.
	ReferenceID *id.ID `db:"reference_id" json:"referenceId,omitempty"`

	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AdjustRequest describes one atomic quantity change.
type AdjustRequest struct {
	ProductID   id.ID
	Delta       int
	Kind        Kind
	BatchNumber string
	ReferenceID *id.ID
	Reason      string

	// AllowInactive permits movements against soft-deleted products.
	// Reversals (cancellation, returns) set it; new trades never do.
	AllowInactive bool
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	Kind     *Kind
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
