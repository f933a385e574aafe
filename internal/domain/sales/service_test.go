package sales_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/sales"
	"medistock/internal/infrastructure/storage/memory"
	"medistock/pkg/refnum"
)

type saleFixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *sales.Service
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.Movements(), store.Products(), store)
	svc := sales.NewService(store.Sales(), store.Products(), store.Customers(), ledgerSvc, refnum.New(), store)
	return &saleFixture{
		ctx:   tenant.WithCompany(context.Background(), id.New()),
		store: store,
		svc:   svc,
	}
}

func (f *saleFixture) seedProduct(t *testing.T, name, sku string, price string, taxPct string, quantity int) *product.Product {
	t.Helper()
	p := product.New(tenant.MustCompanyID(f.ctx), name, sku)
	p.SellingPrice = types.MustMoney(price)
	p.TaxPercentage = types.MustMoney(taxPct)
	p.Quantity = quantity
	p.BatchNumber = "B-001"
	require.NoError(t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *saleFixture) seedCustomer(t *testing.T, name string) *customer.Customer {
	t.Helper()
	c := customer.New(tenant.MustCompanyID(f.ctx), name, "9000000001")
	require.NoError(t, f.store.Customers().Create(f.ctx, c))
	return c
}

func (f *saleFixture) quantityOf(t *testing.T, productID id.ID) int {
	t.Helper()
	p, err := f.store.Products().GetByID(f.ctx, productID)
	require.NoError(t, err)
	return p.Quantity
}

func TestCreateSale_ComputesTotalsAndDecrementsStock(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Paracetamol 500mg", "PARA-500", "100", "5", 10)

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sale.InvoiceNumber, "INV"))
	assert.Equal(t, sales.StatusPaid, sale.PaymentStatus)
	assert.True(t, sale.Subtotal.Equal(types.MustMoney("300")), "subtotal %s", sale.Subtotal)
	assert.True(t, sale.TaxAmount.Equal(types.MustMoney("15")), "tax %s", sale.TaxAmount)
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("315")), "total %s", sale.TotalAmount)

	assert.Equal(t, 7, f.quantityOf(t, p.ID))

	ledgerSvc := ledger.NewService(f.store.Movements(), f.store.Products(), f.store)
	movements, err := ledgerSvc.ListMovements(f.ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].Delta)
	assert.Equal(t, ledger.KindSale, movements[0].Kind)
	require.NotNil(t, movements[0].ReferenceID)
	assert.Equal(t, sale.ID, *movements[0].ReferenceID)
}

func TestCreateSale_EmptyCart(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{PaymentMethod: sales.PaymentCash})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateSale_TaxSuppressed(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Ibuprofen", "IBU-200", "50", "12", 10)

	noTax := false
	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: sales.PaymentCash,
		IncludeTax:    &noTax,
	})
	require.NoError(t, err)

	assert.True(t, sale.TaxAmount.IsZero())
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("100")))
}

func TestCreateSale_LineDiscountBeforeTax(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Vitamin C", "VITC-1", "100", "10", 10)

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines: []sales.SaleLineInput{{
			ProductID: p.ID,
			Quantity:  2,
			Discount:  types.MustMoney("20"),
		}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)

	// (100*2 - 20) = 180, tax 18, total 198
	assert.True(t, sale.Subtotal.Equal(types.MustMoney("180")))
	assert.True(t, sale.TaxAmount.Equal(types.MustMoney("18")))
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("198")))
}

func TestCreateSale_TransactionDiscountAfterTaxAndFlooredAtZero(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Bandage", "BAND-1", "10", "0", 10)

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCash,
		Discount:      types.MustMoney("25"),
	})
	require.NoError(t, err)

	assert.True(t, sale.TotalAmount.IsZero(), "total %s", sale.TotalAmount)
}

func TestCreateSale_UnitPriceOverride(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Syrup", "SYR-1", "80", "0", 10)

	override := types.MustMoney("60")
	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines: []sales.SaleLineInput{{
			ProductID:         p.ID,
			Quantity:          1,
			UnitPriceOverride: &override,
		}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.Equal(types.MustMoney("60")))
}

func TestCreateSale_InsufficientStockRollsBackWholeInvoice(t *testing.T) {
	f := newSaleFixture(t)
	p1 := f.seedProduct(t, "Product A", "SKU-A", "10", "0", 100)
	p2 := f.seedProduct(t, "Product B", "SKU-B", "10", "0", 2)

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines: []sales.SaleLineInput{
			{ProductID: p1.ID, Quantity: 5},
			{ProductID: p2.ID, Quantity: 3},
		},
		PaymentMethod: sales.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Nothing moved, nothing persisted.
	assert.Equal(t, 100, f.quantityOf(t, p1.ID))
	assert.Equal(t, 2, f.quantityOf(t, p2.ID))

	list, err := f.svc.ListSales(f.ctx, sales.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateSale_BoundaryExactStock(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Gauze", "GZ-1", "5", "0", 4)

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 4}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.quantityOf(t, p.ID))

	_, err = f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, 0, f.quantityOf(t, p.ID))
}

func TestCreateSale_CreditRaisesCustomerBalance(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Insulin", "INS-1", "200", "5", 10)
	c := f.seedCustomer(t, "Asha Traders")

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		CustomerID:    &c.ID,
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, sales.StatusPending, sale.PaymentStatus)

	got, err := f.store.Customers().GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(sale.TotalAmount))
}

func TestCreateSale_CreditRequiresCustomer(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Insulin", "INS-1", "200", "5", 10)

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCredit,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateSale_CreditInactiveCustomerRejected(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Insulin", "INS-1", "200", "0", 10)
	c := f.seedCustomer(t, "Asha Traders")
	c.IsActive = false
	require.NoError(t, f.store.Customers().Update(f.ctx, c))

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		CustomerID:    &c.ID,
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCredit,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, 10, f.quantityOf(t, p.ID))

	// Cash carries no balance, so the closed account does not matter.
	_, err = f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		CustomerID:    &c.ID,
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)
}

func TestCancelSale_RestocksAndIsTerminal(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Cough Syrup", "CS-1", "90", "5", 10)

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 4}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.quantityOf(t, p.ID))

	cancelled, err := f.svc.CancelSale(f.ctx, sale.ID, "billing error")
	require.NoError(t, err)
	assert.True(t, cancelled.IsCancelled)
	assert.Equal(t, "billing error", cancelled.CancellationReason)
	assert.Equal(t, 10, f.quantityOf(t, p.ID))

	ledgerSvc := ledger.NewService(f.store.Movements(), f.store.Products(), f.store)
	movements, err := ledgerSvc.ListMovements(f.ctx, p.ID, ledger.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, 4, movements[0].Delta)
	assert.Equal(t, ledger.KindSale, movements[0].Kind)
	assert.Equal(t, "Cancelled invoice "+sale.InvoiceNumber, movements[0].Reason)

	// The caller's reason sticks to the invoice, not the generated note.
	got, err := f.svc.GetSale(f.ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing error", got.CancellationReason)

	_, err = f.svc.CancelSale(f.ctx, sale.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyCancelled))
	assert.Equal(t, 10, f.quantityOf(t, p.ID))
}

func TestCancelSale_CreditReversesCustomerBalance(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Insulin", "INS-1", "200", "0", 10)
	c := f.seedCustomer(t, "Asha Traders")

	sale, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		CustomerID:    &c.ID,
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: sales.PaymentCredit,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelSale(f.ctx, sale.ID, "")
	require.NoError(t, err)

	got, err := f.store.Customers().GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero(), "balance %s", got.CurrentBalance)
}

func TestListSales_OtherCompanyInvisible(t *testing.T) {
	f := newSaleFixture(t)
	p := f.seedProduct(t, "Gauze", "GZ-1", "5", "0", 10)

	_, err := f.svc.CreateSale(f.ctx, sales.CreateSaleRequest{
		Lines:         []sales.SaleLineInput{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: sales.PaymentCash,
	})
	require.NoError(t, err)

	otherCtx := tenant.WithCompany(context.Background(), id.New())
	list, err := f.svc.ListSales(otherCtx, sales.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
