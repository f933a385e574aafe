// Package customer provides the customer registry and credit balances.
package customer

import (
	"context"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// Customer is a buyer known to the company. CurrentBalance is the running
// credit balance: raised by credit sales, lowered by payments and by
// returns against credit sales. Nothing else may change it.
type Customer struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
	Email     string `db:"email" json:"email,omitempty"`
	Address   string `db:"address" json:"address,omitempty"`
	GSTNumber string `db:"gst_number" json:"gstNumber,omitempty"`

	CreditLimit    types.Money `db:"credit_limit" json:"creditLimit"`
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a customer for the given company.
func New(companyID id.ID, name, phone string) *Customer {
	now := time.Now().UTC()
	return &Customer{
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
func (c *Customer) Validate(ctx context.Context) error {
	if id.IsNil(c.CompanyID) {
		return apperror.NewValidation("company is required").WithDetail("field", "companyId")
	}
	if c.Name == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "name")
	}
	if c.Phone == "" {
		return apperror.NewValidation("phone is required").WithDetail("field", "phone")
	}
	return nil
}
