package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/infrastructure/storage/memory"
)

func newLedgerFixture(t *testing.T) (context.Context, *memory.Store, *ledger.Service) {
	t.Helper()
	store := memory.NewStore()
	svc := ledger.NewService(store.Movements(), store.Products(), store)
	ctx := tenant.WithCompany(context.Background(), id.New())
	return ctx, store, svc
}

func seedProduct(t *testing.T, ctx context.Context, store *memory.Store, quantity int) *product.Product {
	t.Helper()
	companyID := tenant.MustCompanyID(ctx)
	p := product.New(companyID, "Paracetamol 500mg", "PARA-500")
	p.Quantity = quantity
	require.NoError(t, store.Products().Create(ctx, p))
	return p
}

func TestAdjustStock_UpdatesQuantityAndRecordsMovement(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 10)

	m, err := svc.AdjustStock(ctx, p.ID, -3, "breakage")
	require.NoError(t, err)

	assert.Equal(t, -3, m.Delta)
	assert.Equal(t, ledger.KindAdjustment, m.Kind)
	assert.Equal(t, "breakage", m.Reason)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
}

func TestAdjustStock_ExactlyToZero(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 5)

	_, err := svc.AdjustStock(ctx, p.ID, -5, "stock take")
	require.NoError(t, err)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestAdjustStock_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 5)

	_, err := svc.AdjustStock(ctx, p.ID, -6, "stock take")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	movements, err := svc.ListMovements(ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestAdjust_InactiveProduct(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 10)
	require.NoError(t, store.Products().Deactivate(ctx, p.ID))

	_, err := svc.AdjustStock(ctx, p.ID, -1, "late sale")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeProductInactive))

	// Reversals still reach a deactivated product.
	err = store.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := svc.Adjust(ctx, ledger.AdjustRequest{
			ProductID:     p.ID,
			Delta:         2,
			Kind:          ledger.KindReturn,
			Reason:        "goods came back",
			AllowInactive: true,
		})
		return err
	})
	require.NoError(t, err)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Quantity)
}

func TestAdjustStock_Validation(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 10)

	_, err := svc.AdjustStock(ctx, p.ID, 0, "no-op")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.AdjustStock(ctx, p.ID, 1, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestListMovements_NewestFirstAndKindFilter(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 0)

	_, err := svc.AdjustStock(ctx, p.ID, 10, "opening stock")
	require.NoError(t, err)
	_, err = svc.AdjustStock(ctx, p.ID, -2, "breakage")
	require.NoError(t, err)

	movements, err := svc.ListMovements(ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, -2, movements[0].Delta)
	assert.Equal(t, 10, movements[1].Delta)

	kind := ledger.KindAdjustment
	movements, err = svc.ListMovements(ctx, p.ID, ledger.MovementFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}

func TestReconcile_MatchesMaterializedQuantity(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 0)

	for _, delta := range []int{10, -3, 5, -2} {
		_, err := svc.AdjustStock(ctx, p.ID, delta, "stock take")
		require.NoError(t, err)
	}

	sum, err := svc.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, sum)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, got.Quantity)
}

func TestRepair_ResetsDriftedQuantity(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 0)

	_, err := svc.AdjustStock(ctx, p.ID, 8, "opening stock")
	require.NoError(t, err)

	// Simulate drift in the materialized count.
	require.NoError(t, store.Products().SetQuantity(ctx, p.ID, 99, p.UpdatedAt))

	qty, err := svc.Repair(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, qty)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)

	// Repair records no movement of its own.
	movements, err := svc.ListMovements(ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestAdjustStock_ConcurrentNeverOversells(t *testing.T) {
	ctx, store, svc := newLedgerFixture(t)
	p := seedProduct(t, ctx, store, 10)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AdjustStock(ctx, p.ID, -1, "sale rush")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
		}
	}
	assert.Equal(t, 10, succeeded)

	got, err := store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	sum, err := svc.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}
