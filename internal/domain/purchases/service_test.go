package purchases_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/purchases"
	"medistock/internal/infrastructure/storage/memory"
	"medistock/pkg/refnum"
)

type purchaseFixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *purchases.Service
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.Movements(), store.Products(), store)
	svc := purchases.NewService(store.Purchases(), store.Products(), ledgerSvc, refnum.New(), store)
	return &purchaseFixture{
		ctx:   tenant.WithCompany(context.Background(), id.New()),
		store: store,
		svc:   svc,
	}
}

func (f *purchaseFixture) seedProduct(t *testing.T, name, sku string, taxPct string, quantity int) *product.Product {
	t.Helper()
	p := product.New(tenant.MustCompanyID(f.ctx), name, sku)
	p.TaxPercentage = types.MustMoney(taxPct)
	p.Quantity = quantity
	require.NoError(t, f.store.Products().Create(f.ctx, p))
	return p
}

func expiry(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

func TestCreatePurchase_IncrementsStockAndOverwritesBatch(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "5", 3)

	exp := expiry(365)
	purchase, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID:   p.ID,
			Quantity:    20,
			UnitCost:    types.MustMoney("12.50"),
			BatchNumber: "B-2026-01",
			ExpiryDate:  exp,
		}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(purchase.PurchaseNumber, "PO"))
	assert.Equal(t, purchases.StatusPending, purchase.PaymentStatus)
	// 12.50*20 = 250, tax 12.50, total 262.50
	assert.True(t, purchase.Subtotal.Equal(types.MustMoney("250")))
	assert.True(t, purchase.TaxAmount.Equal(types.MustMoney("12.5")))
	assert.True(t, purchase.TotalAmount.Equal(types.MustMoney("262.5")))

	got, err := f.store.Products().GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 23, got.Quantity)
	assert.Equal(t, "B-2026-01", got.BatchNumber)
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, got.ExpiryDate.Equal(exp))
	assert.True(t, got.PurchasePrice.Equal(types.MustMoney("12.50")))

	ledgerSvc := ledger.NewService(f.store.Movements(), f.store.Products(), f.store)
	movements, err := ledgerSvc.ListMovements(f.ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 20, movements[0].Delta)
	assert.Equal(t, ledger.KindPurchase, movements[0].Kind)
	assert.Equal(t, "B-2026-01", movements[0].BatchNumber)
}

func TestCreatePurchase_LastLineWinsBatchOverwrite(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "0", 0)

	_, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{
			{ProductID: p.ID, Quantity: 10, UnitCost: types.MustMoney("10"), BatchNumber: "B-OLD", ExpiryDate: expiry(100)},
			{ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("11"), BatchNumber: "B-NEW", ExpiryDate: expiry(400)},
		},
	})
	require.NoError(t, err)

	got, err := f.store.Products().GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Quantity)
	assert.Equal(t, "B-NEW", got.BatchNumber)
	assert.True(t, got.PurchasePrice.Equal(types.MustMoney("11")))
}

func TestCreatePurchase_MissingBatchInfo(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "0", 0)

	tests := []struct {
		name string
		line purchases.PurchaseLineInput
	}{
		{
			name: "no batch number",
			line: purchases.PurchaseLineInput{ProductID: p.ID, Quantity: 1, UnitCost: types.MustMoney("1"), ExpiryDate: expiry(10)},
		},
		{
			name: "no expiry",
			line: purchases.PurchaseLineInput{ProductID: p.ID, Quantity: 1, UnitCost: types.MustMoney("1"), BatchNumber: "B-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
				Lines: []purchases.PurchaseLineInput{tt.line},
			})
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeMissingBatchInfo))
		})
	}

	got, err := f.store.Products().GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestCreatePurchase_PaymentStatusFromCaller(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "0", 0)

	line := purchases.PurchaseLineInput{
		ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("10"),
		BatchNumber: "B-1", ExpiryDate: expiry(100),
	}

	paid, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines:         []purchases.PurchaseLineInput{line},
		PaymentStatus: purchases.StatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, purchases.StatusPaid, paid.PaymentStatus)

	_, err = f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines:         []purchases.PurchaseLineInput{line},
		PaymentStatus: "overdue",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreatePurchase_EmptyLines(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordPayment(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "0", 0)

	purchase, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("10"),
			BatchNumber: "B-1", ExpiryDate: expiry(100),
		}},
	})
	require.NoError(t, err)

	paid, err := f.svc.RecordPayment(f.ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, purchases.StatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentDate)

	_, err = f.svc.RecordPayment(f.ctx, purchase.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestListPurchases_FiltersByStatus(t *testing.T) {
	f := newPurchaseFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "0", 0)

	first, err := f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID: p.ID, Quantity: 5, UnitCost: types.MustMoney("10"),
			BatchNumber: "B-1", ExpiryDate: expiry(100),
		}},
	})
	require.NoError(t, err)
	_, err = f.svc.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID: p.ID, Quantity: 3, UnitCost: types.MustMoney("10"),
			BatchNumber: "B-2", ExpiryDate: expiry(100),
		}},
	})
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(f.ctx, first.ID)
	require.NoError(t, err)

	pending, err := f.svc.ListPurchases(f.ctx, purchases.ListFilter{Status: purchases.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, first.ID, pending[0].ID)
}
