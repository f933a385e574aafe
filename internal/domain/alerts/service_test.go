package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/alerts"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/infrastructure/storage/memory"
)

func newAlertFixture(t *testing.T) (context.Context, *memory.Store, *alerts.Service) {
	t.Helper()
	store := memory.NewStore()
	rules, err := alerts.CompileRules(alerts.DefaultRules())
	require.NoError(t, err)
	svc := alerts.NewService(store.Alerts(), store.Products(), rules)
	ctx := tenant.WithCompany(context.Background(), id.New())
	return ctx, store, svc
}

func seedAlertProduct(t *testing.T, ctx context.Context, store *memory.Store, name string, quantity int, expiryDays *int) *product.Product {
	t.Helper()
	p := product.New(tenant.MustCompanyID(ctx), name, "SKU-"+name)
	p.Quantity = quantity
	if expiryDays != nil {
		exp := time.Now().UTC().AddDate(0, 0, *expiryDays)
		p.ExpiryDate = &exp
		p.BatchNumber = "B-001"
	}
	require.NoError(t, store.Products().Create(ctx, p))
	return p
}

func intPtr(v int) *int { return &v }

func TestCompileRules_RejectsBadExpressions(t *testing.T) {
	_, err := alerts.CompileRules([]alerts.Rule{{Name: "broken", Expression: `quantity +`}})
	require.Error(t, err)

	_, err = alerts.CompileRules([]alerts.Rule{{Name: "not-bool", Expression: `quantity + 1`}})
	require.Error(t, err)
}

func TestScan_RaisesLowStockAndExpiry(t *testing.T) {
	ctx, store, svc := newAlertFixture(t)

	// Defaults: minimum 10, reorder 20.
	seedAlertProduct(t, ctx, store, "low", 5, nil)
	seedAlertProduct(t, ctx, store, "out", 0, nil)
	seedAlertProduct(t, ctx, store, "reorder", 15, nil)
	seedAlertProduct(t, ctx, store, "healthy", 100, nil)
	seedAlertProduct(t, ctx, store, "expiring", 100, intPtr(30))
	seedAlertProduct(t, ctx, store, "expired", 100, intPtr(-5))

	raised, err := svc.Scan(ctx)
	require.NoError(t, err)

	byRule := map[string]int{}
	for _, a := range raised {
		byRule[a.RuleName]++
	}
	assert.Equal(t, 1, byRule["low_stock"])
	assert.Equal(t, 1, byRule["out_of_stock"])
	assert.Equal(t, 1, byRule["reorder"])
	assert.Equal(t, 1, byRule["expiring_soon"])
	assert.Equal(t, 1, byRule["expired"])
}

func TestScan_DoesNotDuplicateOpenAlerts(t *testing.T) {
	ctx, store, svc := newAlertFixture(t)
	p := seedAlertProduct(t, ctx, store, "low", 5, nil)

	first, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)

	// Acknowledged alerts reopen on the next pass while the condition
	// still holds.
	require.NoError(t, svc.Acknowledge(ctx, first[0].ID))
	third, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, p.ID, third[0].ProductID)
}

func TestList_OnlyOpen(t *testing.T) {
	ctx, store, svc := newAlertFixture(t)
	seedAlertProduct(t, ctx, store, "low", 5, nil)

	raised, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, raised, 1)
	require.NoError(t, svc.Acknowledge(ctx, raised[0].ID))

	open, err := svc.List(ctx, alerts.ListFilter{OnlyOpen: true})
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.List(ctx, alerts.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
