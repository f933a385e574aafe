// Package supplier provides the supplier registry consumed by purchasing.
package supplier

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
)

// Supplier is a vendor the company purchases from.
type Supplier struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Name          string `db:"name" json:"name"`
	ContactPerson string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         string `db:"phone" json:"phone"`
	Email         string `db:"email" json:"email,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`
	GSTNumber     string `db:"gst_number" json:"gstNumber,omitempty"`
	PaymentTerms  string `db:"payment_terms" json:"paymentTerms,omitempty"`
	Notes         string `db:"notes" json:"notes,omitempty"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a supplier for the given company.
func New(companyID id.ID, name, phone string) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		ID:        id.New(),
		CompanyID: companyID,
		Name:      name,
		Phone:     phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks registry invariants.
func (s *Supplier) Validate(ctx context.Context) error {
	if id.IsNil(s.CompanyID) {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	if s.Name == "" {
		return apperror.NewValidation("supplier name is required").WithDetail("field", "name")
	}
	if s.Phone == "" {
		return apperror.NewValidation("phone is required").WithDetail("field", "phone")
	}
	return nil
}
