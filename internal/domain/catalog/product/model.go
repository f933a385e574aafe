// Package product provides the product catalog (medicines and retail SKUs).
package product

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Product is a stock-keeping unit owned by one company.
//
// Quantity is the authoritative on-hand count and is only ever changed by
// the stock ledger; it is a materialized cache of the movement history.
// BatchNumber/ExpiryDate hold the current batch under the
// single-batch-per-product simplification: each purchase overwrites them.
type Product struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Name         string `db:"name" json:"name"`
	GenericName  string `db:"generic_name" json:"genericName,omitempty"`
	Brand        string `db:"brand" json:"brand,omitempty"`
	Category     string `db:"category" json:"category"`
	Manufacturer string `db:"manufacturer" json:"manufacturer,omitempty"`

	SKU     string `db:"sku" json:"sku"`
	Barcode string `db:"barcode" json:"barcode,omitempty"`

	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	SellingPrice  types.Money `db:"selling_price" json:"sellingPrice"`
	MRP           types.Money `db:"mrp" json:"mrp"`
	TaxPercentage types.Money `db:"tax_percentage" json:"taxPercentage"`

	BatchNumber string     `db:"batch_number" json:"batchNumber,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	Quantity          int `db:"quantity" json:"quantity"`
	MinimumStockLevel int `db:"minimum_stock_level" json:"minimumStockLevel"`
	ReorderLevel      int `db:"reorder_level" json:"reorderLevel"`

	PrescriptionRequired bool   `db:"prescription_required" json:"prescriptionRequired"`
	Description          string `db:"description" json:"description,omitempty"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product for the given company with defaults matching a
// fresh catalog entry.
func New(companyID id.ID, name, sku string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:                id.New(),
		CompanyID:         companyID,
		Name:              name,
		SKU:               sku,
		MinimumStockLevel: 10,
		ReorderLevel:      20,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate checks catalog invariants.
func (p *Product) Validate(ctx context.Context) error {
	if id.IsNil(p.CompanyID) {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	if p.Name == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "name")
	}
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").WithDetail("field", "quantity")
	}
	if p.PurchasePrice.IsNegative() || p.SellingPrice.IsNegative() || p.MRP.IsNegative() {
		return apperror.NewValidation("prices must not be negative").WithDetail("field", "prices")
	}
	if p.TaxPercentage.IsNegative() {
		return apperror.NewValidation("tax percentage must not be negative").WithDetail("field", "taxPercentage")
	}
	return nil
}

// Touch updates the modification timestamp.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// DaysToExpiry returns the whole days until the current batch expires.
// ok is false when the product carries no expiry date.
func (p *Product) DaysToExpiry(now time.Time) (days int, ok bool) {
	if p.ExpiryDate == nil {
		return 0, false
	}
	return int(p.ExpiryDate.Sub(now).Hours() / 24), true
}
