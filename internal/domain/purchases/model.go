// Package purchases provides the purchase (goods receipt) engine.
package purchases

import (
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Payment status values for purchases. Receipts default to pending until
// the supplier invoice is settled.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusPartial = "partial"
)

// Purchase is a goods receipt header. Created atomically with its lines,
// the stock increments and the batch overwrites.
type Purchase struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	PurchaseNumber string    `db:"purchase_number" json:"purchaseNumber"`
	PurchaseDate   time.Time `db:"purchase_date" json:"purchaseDate"`

	// SupplierInvoice is the supplier's own invoice reference.
	SupplierInvoice string `db:"supplier_invoice" json:"supplierInvoice,omitempty"`

	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`

	PaymentStatus string     `db:"payment_status" json:"paymentStatus"`
	PaymentDate   *time.Time `db:"payment_date" json:"paymentDate,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Lines []PurchaseLine `db:"-" json:"lines"`
}

// PurchaseLine is one received product entry. Batch number and expiry are
// mandatory; goods without them cannot be received.
type PurchaseLine struct {
	ID         id.ID `db:"id" json:"id"`
	PurchaseID id.ID `db:"purchase_id" json:"purchaseId"`

	ProductID   id.ID     `db:"product_id" json:"productId"`
	BatchNumber string    `db:"batch_number" json:"batchNumber"`
	ExpiryDate  time.Time `db:"expiry_date" json:"expiryDate"`

	Quantity      int         `db:"quantity" json:"quantity"`
	UnitCost      types.Money `db:"unit_cost" json:"unitCost"`
	TaxPercentage types.Money `db:"tax_percentage" json:"taxPercentage"`
	TaxAmount     types.Money `db:"tax_amount" json:"taxAmount"`
	TotalAmount   types.Money `db:"total_amount" json:"totalAmount"`
}

// CreatePurchaseRequest is the validated engine input. PaymentStatus is
// optional and defaults to pending.
type CreatePurchaseRequest struct {
	SupplierID      *id.ID              `json:"supplierId"`
	SupplierInvoice string              `json:"supplierInvoice"`
	Lines           []PurchaseLineInput `json:"lines"`
	Discount        types.Money         `json:"discount"`
	IncludeTax      *bool               `json:"includeTax"`
	PaymentStatus   string              `json:"paymentStatus"`
	Notes           string              `json:"notes"`
}

// PurchaseLineInput is one requested receipt line.
type PurchaseLineInput struct {
	ProductID   id.ID       `json:"productId"`
	Quantity    int         `json:"quantity"`
	UnitCost    types.Money `json:"unitCost"`
	BatchNumber string      `json:"batchNumber"`
	ExpiryDate  time.Time   `json:"expiryDate"`
}

// Taxed resolves the include-tax flag (default true).
func (r CreatePurchaseRequest) Taxed() bool {
	return r.IncludeTax == nil || *r.IncludeTax
}

// ListFilter narrows receipt listings.
type ListFilter struct {
	Search     string // purchase number or supplier invoice
	SupplierID *id.ID
	Status     string
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
