// Package pricing computes line and document monetary totals.
// Everything here is pure: no state, no store access. All amounts are
// decimal; two-decimal rounding is applied only at line and document
// boundaries, never mid-calculation.
package pricing

import (
	"medistock/internal/core/apperror"
	"medistock/internal/core/types"
)

// LineInput describes one product line of a sale or purchase.
type LineInput struct {
	UnitPrice     types.Money
	Quantity      int
	Discount      types.Money // absolute line discount, not a percentage
	TaxPercentage types.Money
}

// LineTotals is the monetary result of a single line.
type LineTotals struct {
	Subtotal types.Money // unitPrice*quantity - discount
	Tax      types.Money // subtotal * taxPercentage / 100, zero when untaxed
	Total    types.Money // subtotal + tax
}

// DocumentTotals aggregates line totals with a transaction-level discount.
type DocumentTotals struct {
	Subtotal       types.Money
	TaxAmount      types.Money
	DiscountAmount types.Money // the transaction-level discount
	GrandTotal     types.Money // max(0, subtotal + tax - discount)
}

// Line computes totals for a single line. taxed=false suppresses tax for
// the whole transaction (the caller's include-tax flag).
func Line(in LineInput, taxed bool) (LineTotals, error) {
	if err := validateLine(in); err != nil {
		return LineTotals{}, err
	}

	subtotal := in.UnitPrice.Mul(types.MoneyFromInt(int64(in.Quantity))).Sub(in.Discount)

	tax := types.Zero()
	if taxed {
		tax = subtotal.Mul(in.TaxPercentage).Div(types.MoneyFromInt(100))
	}

	return LineTotals{
		Subtotal: types.Round2(subtotal),
		Tax:      types.Round2(tax),
		Total:    types.Round2(subtotal.Add(tax)),
	}, nil
}

// Document computes aggregate totals for a set of lines and a
// transaction-level discount. The grand total is floored at zero.
func Document(lines []LineTotals, discount types.Money) (DocumentTotals, error) {
	if discount.IsNegative() {
		return DocumentTotals{}, apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discount")
	}

	subtotal := types.Zero()
	tax := types.Zero()
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
		tax = tax.Add(l.Tax)
	}

	grand := types.MaxZero(subtotal.Add(tax).Sub(discount))

	return DocumentTotals{
		Subtotal:       types.Round2(subtotal),
		TaxAmount:      types.Round2(tax),
		DiscountAmount: types.Round2(discount),
		GrandTotal:     types.Round2(grand),
	}, nil
}

func validateLine(in LineInput) error {
	switch {
	case in.Quantity <= 0:
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	case in.UnitPrice.IsNegative():
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unit_price")
	case in.Discount.IsNegative():
		return apperror.NewValidation("line discount must not be negative").
			WithDetail("field", "discount")
	case in.TaxPercentage.IsNegative():
		return apperror.NewValidation("tax percentage must not be negative").
			WithDetail("field", "tax_percentage")
	}

	// A discount larger than the gross line amount would make the line
	// subtotal negative.
	gross := in.UnitPrice.Mul(types.MoneyFromInt(int64(in.Quantity)))
	if in.Discount.GreaterThan(gross) {
		return apperror.NewValidation("line discount exceeds line amount").
			WithDetail("field", "discount")
	}

	return nil
}
