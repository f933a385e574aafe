// Package tenant carries the company (tenant) scope of a request.
// Every core operation receives its tenant explicitly through the context;
// there is no ambient company state. Data of all companies lives in one
// database, partitioned by company_id on every row, so each repository
// query must filter by the context company.
package tenant

import (
	"context"
	"errors"

	"medistock/internal/core/id"
)

type ctxKey int

const companyKey ctxKey = iota

// ErrNoCompanyInContext is returned when an operation runs without a
// tenant scope. This is a programming error in the calling layer.
var ErrNoCompanyInContext = errors.New("company not found in context")

// WithCompany stores the company id in context.
func WithCompany(ctx context.Context, companyID id.ID) context.Context {
	return context.WithValue(ctx, companyKey, companyID)
}

// CompanyID retrieves the company id from context.
func CompanyID(ctx context.Context) (id.ID, error) {
	cid, ok := ctx.Value(companyKey).(id.ID)
	if !ok || id.IsNil(cid) {
		return id.Nil(), ErrNoCompanyInContext
	}
	return cid, nil
}

// MustCompanyID retrieves the company id or panics.
// Use only where a missing tenant is a wiring bug, never on user input.
func MustCompanyID(ctx context.Context) id.ID {
	cid, err := CompanyID(ctx)
	if err != nil {
		panic("company not in context")
	}
	return cid
}
