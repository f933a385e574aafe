package returns_test

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
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/purchases"
	"medistock/internal/domain/returns"
	"medistock/internal/domain/sales"
	"medistock/internal/infrastructure/storage/memory"
	"medistock/pkg/refnum"
)

type returnFixture struct {
	ctx       context.Context
	store     *memory.Store
	sales     *sales.Service
	purchases *purchases.Service
	svc       *returns.Service
}

func newReturnFixture(t *testing.T) *returnFixture {
	t.Helper()
	store := memory.NewStore()
	numbers := refnum.New()
	ledgerSvc := ledger.NewService(store.Movements(), store.Products(), store)
	salesSvc := sales.NewService(store.Sales(), store.Products(), store.Customers(), ledgerSvc, numbers, store)
	purchasesSvc := purchases.NewService(store.Purchases(), store.Products(), ledgerSvc, numbers, store)
	svc := returns.NewService(
		store.Returns(), store.Sales(), store.Purchases(),
		store.Products(), store.Customers(), ledgerSvc, numbers, store,
	)
	return &returnFixture{
		ctx:       tenant.WithCompany(context.Background(), id.New()),
		store:     store,
		sales:     salesSvc,
		purchases: purchasesSvc,
		svc:       svc,
	}
}

func (f *returnFixture) seedProduct(t *testing.T, name, sku, price, taxPct string, quantity int) *product.Product {
	t.Helper()
	p := product.New(tenant.MustCompanyID(f.ctx), name, sku)
	p.SellingPrice = types.MustMoney(price)
	p.TaxPercentage = types.MustMoney(taxPct)
	p.Quantity = quantity
	p.BatchNumber = "B-001"
	require.NoError(t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *returnFixture) quantityOf(t *testing.T, productID id.ID) int {
	t.Helper()
	p, err := f.store.Products().GetByID(f.ctx, productID)
	require.NoError(t, err)
	return p.Quantity
}

func (f *returnFixture) sell(t *testing.T, p *product.Product, qty int) *sales.Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: qty}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)
	return sale
}

func TestReturnSaleLine_PartialRefundAndRestock(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Paracetamol", "PARA-500", "100", "5", 10)
	sale := f.sell(t, p, 4) // line tax 20, total 420

	ret, err := f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "damaged strip", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ret.CreditNoteNumber, "CN"))
	assert.Equal(t, returns.KindSaleReturn, ret.Kind)
	// unit 100 + tax 20 * 1/4 = 105
	assert.True(t, ret.RefundAmount.Equal(types.MustMoney("105")), "refund %s", ret.RefundAmount)
	assert.Equal(t, 7, f.quantityOf(t, p.ID))
}

func TestReturnSaleLine_CumulativeQuantityGuard(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Paracetamol", "PARA-500", "100", "0", 10)
	sale := f.sell(t, p, 3)

	_, err := f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 2, "", "")
	require.NoError(t, err)

	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 2, "", "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidReturnQuantity))

	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "")
	require.NoError(t, err)

	// Fully returned now.
	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidReturnQuantity))

	assert.Equal(t, 10, f.quantityOf(t, p.ID))
}

func TestReturnSaleLine_RejectsZeroAndNegative(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Paracetamol", "PARA-500", "100", "0", 10)
	sale := f.sell(t, p, 3)

	for _, qty := range []int{0, -1} {
		_, err := f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, qty, "", "")
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidReturnQuantity))
	}
}

func TestReturnSaleLine_RefundMode(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Paracetamol", "PARA-500", "100", "0", 10)
	sale := f.sell(t, p, 5)

	// Unset mode means a cash payout.
	ret, err := f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, returns.RefundCash, ret.RefundMode)

	ret, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", returns.RefundUPI)
	require.NoError(t, err)
	assert.Equal(t, returns.RefundUPI, ret.RefundMode)

	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "cheque")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, 7, f.quantityOf(t, p.ID))

	rets, err := f.svc.ReturnSaleFull(f.ctx, sale.ID, "", returns.RefundCard)
	require.NoError(t, err)
	require.Len(t, rets, 1)
	assert.Equal(t, returns.RefundCard, rets[0].RefundMode)
}

func TestReturnSaleLine_CancelledInvoice(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Paracetamol", "PARA-500", "100", "0", 10)
	sale := f.sell(t, p, 3)

	_, err := f.sales.CancelSale(f.ctx, sale.ID, "")
	require.NoError(t, err)

	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyCancelled))
}

func TestReturnSaleLine_CreditCustomerBalanceReduced(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Insulin", "INS-1", "200", "0", 10)
	c := customer.New(tenant.MustCompanyID(f.ctx), "Asha Traders", "9000000001")
	require.NoError(t, f.store.Customers().Create(f.ctx, c))

	sale, err := f.sales.CreateSale(f.ctx, sales.CreateSaleRequest{
		CustomerID:    &c.ID,
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: sales.PaymentCredit,
	})
	require.NoError(t, err)

	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p.ID, 1, "", "")
	require.NoError(t, err)

	got, err := f.store.Customers().GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(types.MustMoney("200")), "balance %s", got.CurrentBalance)
}

func TestReturnSaleFull_RestoresAllRemaindersUnderOneCreditNote(t *testing.T) {
	f := newReturnFixture(t)
	p1 := f.seedProduct(t, "Product A", "SKU-A", "10", "0", 20)
	p2 := f.seedProduct(t, "Product B", "SKU-B", "20", "0", 20)

	sale, err := f.sales.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines: []sales.SaleLineInput{
			{ProductID: p1.ID, Quantity: 5},
			{ProductID: p2.ID, Quantity: 3},
		},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)

	// Part of the first line already went back.
	_, err = f.svc.ReturnSaleLine(f.ctx, sale.ID, p1.ID, 2, "", "")
	require.NoError(t, err)

	rets, err := f.svc.ReturnSaleFull(f.ctx, sale.ID, "customer changed mind", "")
	require.NoError(t, err)
	require.Len(t, rets, 2)
	assert.Equal(t, rets[0].CreditNoteNumber, rets[1].CreditNoteNumber)

	assert.Equal(t, 20, f.quantityOf(t, p1.ID))
	assert.Equal(t, 20, f.quantityOf(t, p2.ID))

	// Nothing left afterwards.
	_, err = f.svc.ReturnSaleFull(f.ctx, sale.ID, "", "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReturnPurchaseLine_ReleasesStock(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "20", "5", 0)

	purchase, err := f.purchases.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID:   p.ID,
			Quantity:    10,
			UnitCost:    types.MustMoney("8"),
			BatchNumber: "B-2026-01",
			ExpiryDate:  time.Now().UTC().AddDate(1, 0, 0),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, f.quantityOf(t, p.ID))

	ret, err := f.svc.ReturnPurchaseLine(f.ctx, purchase.ID, p.ID, "B-2026-01", 4, "wrong strength")
	require.NoError(t, err)
	assert.Equal(t, returns.KindPurchaseReturn, ret.Kind)
	assert.Empty(t, ret.RefundMode)
	// unit 8*4 + tax 4 * 4/10 = 33.60
	assert.True(t, ret.RefundAmount.Equal(types.MustMoney("33.60")), "refund %s", ret.RefundAmount)
	assert.Equal(t, 6, f.quantityOf(t, p.ID))
}

func TestReturnPurchaseLine_CannotExceedOnHand(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "20", "0", 0)

	purchase, err := f.purchases.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID:   p.ID,
			Quantity:    10,
			UnitCost:    types.MustMoney("8"),
			BatchNumber: "B-1",
			ExpiryDate:  time.Now().UTC().AddDate(1, 0, 0),
		}},
	})
	require.NoError(t, err)

	// The received goods were sold on before the return attempt.
	f.sell(t, p, 8)

	_, err = f.svc.ReturnPurchaseLine(f.ctx, purchase.ID, p.ID, "B-1", 5, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 2, f.quantityOf(t, p.ID))
}

func TestReturnPurchaseLine_CumulativeGuard(t *testing.T) {
	f := newReturnFixture(t)
	p := f.seedProduct(t, "Amoxicillin", "AMOX-250", "20", "0", 0)

	purchase, err := f.purchases.CreatePurchase(f.ctx, purchases.CreatePurchaseRequest{
		Lines: []purchases.PurchaseLineInput{{
			ProductID:   p.ID,
			Quantity:    10,
			UnitCost:    types.MustMoney("8"),
			BatchNumber: "B-1",
			ExpiryDate:  time.Now().UTC().AddDate(1, 0, 0),
		}},
	})
	require.NoError(t, err)

	_, err = f.svc.ReturnPurchaseLine(f.ctx, purchase.ID, p.ID, "B-1", 7, "")
	require.NoError(t, err)

	_, err = f.svc.ReturnPurchaseLine(f.ctx, purchase.ID, p.ID, "B-1", 4, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidReturnQuantity))
}
