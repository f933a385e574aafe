// Package returns provides the return processor for sold and purchased
// goods.
package returns

import (
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Kind tells which direction the goods move.
type Kind string

const (
	// KindSaleReturn brings sold goods back into stock.
	KindSaleReturn Kind = "sale_return"
	// KindPurchaseReturn sends received goods back to the supplier.
	KindPurchaseReturn Kind = "purchase_return"
)

// RefundMode tells how a sale refund is paid out. Empty on purchase
// returns; the supplier credit has no payout channel.
type RefundMode string

const (
	RefundCash   RefundMode = "cash"
	RefundCard   RefundMode = "card"
	RefundUPI    RefundMode = "upi"
	RefundBank   RefundMode = "bank"
	RefundCredit RefundMode = "credit"
)

// Valid reports whether m is a known refund mode.
func (m RefundMode) Valid() bool {
	switch m {
	case RefundCash, RefundCard, RefundUPI, RefundBank, RefundCredit:
		return true
	}
	return false
}

// Return is one credit note entry: a quantity of one product handed back
// against a sale or a purchase.
type Return struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	CreditNoteNumber string `db:"credit_note_number" json:"creditNoteNumber"`
	Kind             Kind   `db:"kind" json:"kind"`

	SaleID     *id.ID `db:"sale_id" json:"saleId,omitempty"`
	PurchaseID *id.ID `db:"purchase_id" json:"purchaseId,omitempty"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	BatchNumber string `db:"batch_number" json:"batchNumber,omitempty"`

	Quantity     int         `db:"quantity" json:"quantity"`
	RefundAmount types.Money `db:"refund_amount" json:"refundAmount"`
	RefundMode   RefundMode  `db:"refund_mode" json:"refundMode,omitempty"`

	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ListFilter narrows credit note listings.
type ListFilter struct {
	Kind     *Kind
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
