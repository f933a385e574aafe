// Package sales provides the sale transaction engine (point of sale).
package sales

import (
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// PaymentMethod enumerates accepted tenders.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentBank   PaymentMethod = "bank"
	PaymentCredit PaymentMethod = "credit"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBank, PaymentCredit:
		return true
	}
	return false
}

// Payment status values. Sales default to paid; credit sales stay pending
// until settled against the customer balance.
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusPartial = "partial"
)

// Sale is an invoice header. Created atomically with its lines and the
// resulting stock movements, or not at all.
type Sale struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"` // nil for walk-in

	InvoiceNumber string    `db:"invoice_number" json:"invoiceNumber"`
	InvoiceDate   time.Time `db:"invoice_date" json:"invoiceDate"`

	CustomerName  string `db:"customer_name" json:"customerName,omitempty"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone,omitempty"`

	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	PaymentStatus string        `db:"payment_status" json:"paymentStatus"`

	Notes string `db:"notes" json:"notes,omitempty"`

	IsCancelled        bool   `db:"is_cancelled" json:"isCancelled"`
	CancellationReason string `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Lines []SaleLine `db:"-" json:"lines"`
}

// SaleLine is one product entry within a sale.
type SaleLine struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	BatchNumber string `db:"batch_number" json:"batchNumber,omitempty"`

	Quantity       int         `db:"quantity" json:"quantity"`
	UnitPrice      types.Money `db:"unit_price" json:"unitPrice"`
	TaxPercentage  types.Money `db:"tax_percentage" json:"taxPercentage"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
}

// CreateSaleRequest is the validated engine input. The HTTP layer binds
// straight into it; nothing dictionary-shaped enters the engine.
type CreateSaleRequest struct {
	CustomerID    *id.ID          `json:"customerId"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Lines         []SaleLineInput `json:"lines"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Discount      types.Money     `json:"discount"`   // transaction-level
	IncludeTax    *bool           `json:"includeTax"` // nil means true
	Notes         string          `json:"notes"`
}

// SaleLineInput is one requested cart line.
type SaleLineInput struct {
	ProductID id.ID `json:"productId"`
	Quantity  int   `json:"quantity"`

	// UnitPriceOverride replaces the catalog selling price when set.
	UnitPriceOverride *types.Money `json:"unitPriceOverride,omitempty"`

	// Discount is an absolute per-line discount.
	Discount types.Money `json:"discount"`
}

// Taxed resolves the include-tax flag (default true).
func (r CreateSaleRequest) Taxed() bool {
	return r.IncludeTax == nil || *r.IncludeTax
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Search   string // invoice number, customer name or phone
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
