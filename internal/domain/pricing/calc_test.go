package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/types"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name         string
		in           LineInput
		taxed        bool
		wantSubtotal string
		wantTax      string
		wantTotal    string
	}{
		{
			name: "qty 3 at 100 with 5 percent tax",
			in: LineInput{
				UnitPrice:     types.MustMoney("100"),
				Quantity:      3,
				TaxPercentage: types.MustMoney("5"),
			},
			taxed:        true,
			wantSubtotal: "300",
			wantTax:      "15",
			wantTotal:    "315",
		},
		{
			name: "tax suppressed",
			in: LineInput{
				UnitPrice:     types.MustMoney("100"),
				Quantity:      3,
				TaxPercentage: types.MustMoney("5"),
			},
			taxed:        false,
			wantSubtotal: "300",
			wantTax:      "0",
			wantTotal:    "300",
		},
		{
			name: "line discount applies before tax",
			in: LineInput{
				UnitPrice:     types.MustMoney("50"),
				Quantity:      4,
				Discount:      types.MustMoney("20"),
				TaxPercentage: types.MustMoney("10"),
			},
			taxed:        true,
			wantSubtotal: "180",
			wantTax:      "18",
			wantTotal:    "198",
		},
		{
			name: "fractional price rounds at line boundary",
			in: LineInput{
				UnitPrice:     types.MustMoney("9.99"),
				Quantity:      3,
				TaxPercentage: types.MustMoney("12"),
			},
			taxed:        true,
			wantSubtotal: "29.97",
			wantTax:      "3.6",   // 3.5964 rounded
			wantTotal:    "33.57", // 33.5664 rounded
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Line(tt.in, tt.taxed)
			require.NoError(t, err)

			assert.True(t, got.Subtotal.Equal(types.MustMoney(tt.wantSubtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.Tax.Equal(types.MustMoney(tt.wantTax)), "tax %s", got.Tax)
			assert.True(t, got.Total.Equal(types.MustMoney(tt.wantTotal)), "total %s", got.Total)
		})
	}
}

func TestLine_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   LineInput
	}{
		{"zero quantity", LineInput{UnitPrice: types.MustMoney("10"), Quantity: 0}},
		{"negative quantity", LineInput{UnitPrice: types.MustMoney("10"), Quantity: -1}},
		{"negative price", LineInput{UnitPrice: types.MustMoney("-1"), Quantity: 1}},
		{"negative discount", LineInput{UnitPrice: types.MustMoney("10"), Quantity: 1, Discount: types.MustMoney("-5")}},
		{"negative tax", LineInput{UnitPrice: types.MustMoney("10"), Quantity: 1, TaxPercentage: types.MustMoney("-5")}},
		{"discount above line amount", LineInput{UnitPrice: types.MustMoney("10"), Quantity: 1, Discount: types.MustMoney("11")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Line(tt.in, true)
			require.Error(t, err)
		})
	}
}

func TestDocument(t *testing.T) {
	lineA, err := Line(LineInput{UnitPrice: types.MustMoney("100"), Quantity: 3, TaxPercentage: types.MustMoney("5")}, true)
	require.NoError(t, err)
	lineB, err := Line(LineInput{UnitPrice: types.MustMoney("50"), Quantity: 2, TaxPercentage: types.MustMoney("12")}, true)
	require.NoError(t, err)

	totals, err := Document([]LineTotals{lineA, lineB}, types.MustMoney("10"))
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(types.MustMoney("400")))
	assert.True(t, totals.TaxAmount.Equal(types.MustMoney("27")))
	assert.True(t, totals.GrandTotal.Equal(types.MustMoney("417")))

	// line total sum matches subtotal + tax - discount + discount
	sum := lineA.Total.Add(lineB.Total)
	assert.True(t, sum.Equal(totals.Subtotal.Add(totals.TaxAmount)))
}

func TestDocument_GrandTotalFlooredAtZero(t *testing.T) {
	line, err := Line(LineInput{UnitPrice: types.MustMoney("10"), Quantity: 1}, false)
	require.NoError(t, err)

	totals, err := Document([]LineTotals{line}, types.MustMoney("500"))
	require.NoError(t, err)

	assert.True(t, totals.GrandTotal.IsZero())
}

func TestDocument_RejectsNegativeDiscount(t *testing.T) {
	_, err := Document(nil, types.MustMoney("-1"))
	require.Error(t, err)
}
