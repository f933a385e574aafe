package refnum

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestNext_Format(t *testing.T) {
	g := NewWithClock(fixedClock())

	num, err := g.Next(context.Background(), PrefixInvoice, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(num, "INV20260102150405"))
	assert.Len(t, num, len("INV")+14+4)
}

func TestNext_RegeneratesOnCollision(t *testing.T) {
	g := NewWithClock(fixedClock())

	calls := 0
	exists := func(ctx context.Context, number string) (bool, error) {
		calls++
		return calls == 1, nil // first candidate is taken
	}

	num, err := g.Next(context.Background(), PrefixCreditNote, exists)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(num, "CN"))
	assert.Equal(t, 2, calls)
}

func TestNext_GivesUpAfterBudget(t *testing.T) {
	g := New()

	exists := func(ctx context.Context, number string) (bool, error) {
		return true, nil // everything is taken
	}

	_, err := g.Next(context.Background(), PrefixPurchase, exists)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PO")
}
