// Package memory provides an in-memory store implementing every repository
// interface plus the transaction manager. It backs the engine tests; the
// production wiring uses the postgres package.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/internal/core/types"
	"medistock/internal/domain/alerts"
	"medistock/internal/domain/auth"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/catalog/supplier"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/purchases"
	"medistock/internal/domain/returns"
	"medistock/internal/domain/sales"
)

// Store holds all state behind one mutex. A transaction owns the mutex for
// its whole duration, which serializes concurrent transactions the way row
// locks do in postgres, and rolls back by restoring a snapshot.
type Store struct {
	mu sync.Mutex

	products  map[id.ID]*product.Product
	customers map[id.ID]*customer.Customer
	suppliers map[id.ID]*supplier.Supplier
	movements []ledger.StockMovement
	sales     map[id.ID]*sales.Sale
	purchases map[id.ID]*purchases.Purchase
	returns   []returns.Return
	alerts    map[id.ID]*alerts.Alert
	users     map[id.ID]*auth.User
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:  make(map[id.ID]*product.Product),
		customers: make(map[id.ID]*customer.Customer),
		suppliers: make(map[id.ID]*supplier.Supplier),
		sales:     make(map[id.ID]*sales.Sale),
		purchases: make(map[id.ID]*purchases.Purchase),
		alerts:    make(map[id.ID]*alerts.Alert),
		users:     make(map[id.ID]*auth.User),
	}
}

type txKey struct{}

// RunInTransaction acquires the store for the duration of fn. Nested calls
// join the outer transaction. On error every change fn made is discarded.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunWithRetry behaves like RunInTransaction. The global mutex leaves
// nothing to conflict on, so no retry is ever needed.
func (s *Store) RunWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

// lock guards reads and writes outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type storeSnapshot struct {
	products  map[id.ID]*product.Product
	customers map[id.ID]*customer.Customer
	suppliers map[id.ID]*supplier.Supplier
	movements []ledger.StockMovement
	sales     map[id.ID]*sales.Sale
	purchases map[id.ID]*purchases.Purchase
	returns   []returns.Return
	alerts    map[id.ID]*alerts.Alert
	users     map[id.ID]*auth.User
}

func (s *Store) snapshot() storeSnapshot {
	return storeSnapshot{
		products:  cloneMap(s.products),
		customers: cloneMap(s.customers),
		suppliers: cloneMap(s.suppliers),
		movements: append([]ledger.StockMovement(nil), s.movements...),
		sales:     cloneSales(s.sales),
		purchases: clonePurchases(s.purchases),
		returns:   append([]returns.Return(nil), s.returns...),
		alerts:    cloneMap(s.alerts),
		users:     cloneMap(s.users),
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.products = snap.products
	s.customers = snap.customers
	s.suppliers = snap.suppliers
	s.movements = snap.movements
	s.sales = snap.sales
	s.purchases = snap.purchases
	s.returns = snap.returns
	s.alerts = snap.alerts
	s.users = snap.users
}

func cloneMap[T any](src map[id.ID]*T) map[id.ID]*T {
	dst := make(map[id.ID]*T, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

func cloneSales(src map[id.ID]*sales.Sale) map[id.ID]*sales.Sale {
	dst := make(map[id.ID]*sales.Sale, len(src))
	for k, v := range src {
		cp := *v
		cp.Lines = append([]sales.SaleLine(nil), v.Lines...)
		dst[k] = &cp
	}
	return dst
}

func clonePurchases(src map[id.ID]*purchases.Purchase) map[id.ID]*purchases.Purchase {
	dst := make(map[id.ID]*purchases.Purchase, len(src))
	for k, v := range src {
		cp := *v
		cp.Lines = append([]purchases.PurchaseLine(nil), v.Lines...)
		dst[k] = &cp
	}
	return dst
}

func companyOf(ctx context.Context) (id.ID, error) {
	return tenant.CompanyID(ctx)
}

// Products returns the product repository view.
func (s *Store) Products() product.Repository { return &productRepo{s} }

// Customers returns the customer repository view.
func (s *Store) Customers() customer.Repository { return &customerRepo{s} }

// Suppliers returns the supplier repository view.
func (s *Store) Suppliers() supplier.Repository { return &supplierRepo{s} }

// Movements returns the stock movement repository view.
func (s *Store) Movements() ledger.Repository { return &movementRepo{s} }

// Sales returns the sale repository view.
func (s *Store) Sales() sales.Repository { return &saleRepo{s} }

// Purchases returns the purchase repository view.
func (s *Store) Purchases() purchases.Repository { return &purchaseRepo{s} }

// Returns returns the credit note repository view.
func (s *Store) Returns() returns.Repository { return &returnRepo{s} }

// Alerts returns the alert repository view.
func (s *Store) Alerts() alerts.Repository { return &alertRepo{s} }

// Users returns the user repository view.
func (s *Store) Users() auth.UserRepository { return &userRepo{s} }

// ---- products ----

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	defer r.s.lock(ctx)()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *productRepo) get(ctx context.Context, productID id.ID) (*product.Product, error) {
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := r.s.products[productID]
	if !ok || p.CompanyID != companyID {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *productRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	defer r.s.lock(ctx)()
	p, err := r.get(ctx, productID)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	// The transaction already owns the store, which is a stronger lock
	// than FOR UPDATE.
	return r.GetByID(ctx, productID)
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	defer r.s.lock(ctx)()
	if _, err := r.get(ctx, p.ID); err != nil {
		return err
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *productRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int, updatedAt time.Time) error {
	defer r.s.lock(ctx)()
	p, err := r.get(ctx, productID)
	if err != nil {
		return err
	}
	p.Quantity = quantity
	p.UpdatedAt = updatedAt
	return nil
}

func (r *productRepo) SetBatchInfo(ctx context.Context, productID id.ID, batchNumber string, expiryDate time.Time, purchasePrice types.Money) error {
	defer r.s.lock(ctx)()
	p, err := r.get(ctx, productID)
	if err != nil {
		return err
	}
	p.BatchNumber = batchNumber
	p.ExpiryDate = &expiryDate
	p.PurchasePrice = purchasePrice
	return nil
}

func (r *productRepo) Deactivate(ctx context.Context, productID id.ID) error {
	defer r.s.lock(ctx)()
	p, err := r.get(ctx, productID)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.Touch()
	return nil
}

func (r *productRepo) ExistsSKU(ctx context.Context, sku string) (bool, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) ExistsBarcode(ctx context.Context, barcode string) (bool, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}

	var out []*product.Product
	for _, p := range r.s.products {
		if p.CompanyID != companyID {
			continue
		}
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesProduct(p, filter.Search) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *productRepo) LowStock(ctx context.Context) ([]*product.Product, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	var out []*product.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.IsActive && p.Quantity <= p.MinimumStockLevel {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *productRepo) Expiring(ctx context.Context, before time.Time) ([]*product.Product, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	var out []*product.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.IsActive && p.ExpiryDate != nil && !p.ExpiryDate.After(before) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchesProduct(p *product.Product, search string) bool {
	q := strings.ToLower(search)
	for _, field := range []string{p.Name, p.GenericName, p.SKU, p.Barcode} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---- customers ----

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(ctx context.Context, c *customer.Customer) error {
	defer r.s.lock(ctx)()
	cp := *c
	r.s.customers[c.ID] = &cp
	return nil
}

func (r *customerRepo) get(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := r.s.customers[customerID]
	if !ok || c.CompanyID != companyID {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

func (r *customerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	defer r.s.lock(ctx)()
	c, err := r.get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepo) Update(ctx context.Context, c *customer.Customer) error {
	defer r.s.lock(ctx)()
	if _, err := r.get(ctx, c.ID); err != nil {
		return err
	}
	cp := *c
	r.s.customers[c.ID] = &cp
	return nil
}

func (r *customerRepo) List(ctx context.Context, filter customer.ListFilter) ([]*customer.Customer, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(filter.Search)
	var out []*customer.Customer
	for _, c := range r.s.customers {
		if c.CompanyID != companyID {
			continue
		}
		if filter.OnlyActive && !c.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, filter.Search) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *customerRepo) AdjustBalance(ctx context.Context, customerID id.ID, delta types.Money) error {
	defer r.s.lock(ctx)()
	c, err := r.get(ctx, customerID)
	if err != nil {
		return err
	}
	c.CurrentBalance = c.CurrentBalance.Add(delta)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- suppliers ----

type supplierRepo struct{ s *Store }

func (r *supplierRepo) Create(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.lock(ctx)()
	cp := *sup
	r.s.suppliers[sup.ID] = &cp
	return nil
}

func (r *supplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	sup, ok := r.s.suppliers[supplierID]
	if !ok || sup.CompanyID != companyID {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	cp := *sup
	return &cp, nil
}

func (r *supplierRepo) Update(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return err
	}
	existing, ok := r.s.suppliers[sup.ID]
	if !ok || existing.CompanyID != companyID {
		return apperror.NewNotFound("supplier", sup.ID)
	}
	cp := *sup
	r.s.suppliers[sup.ID] = &cp
	return nil
}

func (r *supplierRepo) List(ctx context.Context, filter supplier.ListFilter) ([]*supplier.Supplier, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(filter.Search)
	var out []*supplier.Supplier
	for _, sup := range r.s.suppliers {
		if sup.CompanyID != companyID {
			continue
		}
		if filter.OnlyActive && !sup.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(sup.Name), q) {
			continue
		}
		cp := *sup
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// ---- stock movements ----

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(ctx context.Context, m *ledger.StockMovement) error {
	defer r.s.lock(ctx)()
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID id.ID, filter ledger.MovementFilter) ([]*ledger.StockMovement, error) {
	defer r.s.lock(ctx)()
	var out []*ledger.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.ProductID != productID {
			continue
		}
		if filter.Kind != nil && m.Kind != *filter.Kind {
			continue
		}
		if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
			continue
		}
		cp := m
		out = append(out, &cp)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *movementRepo) SumDeltas(ctx context.Context, productID id.ID) (int, error) {
	defer r.s.lock(ctx)()
	sum := 0
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			sum += m.Delta
		}
	}
	return sum, nil
}

// ---- sales ----

type saleRepo struct{ s *Store }

func (r *saleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	defer r.s.lock(ctx)()
	cp := *sale
	cp.Lines = append([]sales.SaleLine(nil), sale.Lines...)
	r.s.sales[sale.ID] = &cp
	return nil
}

func (r *saleRepo) get(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	sale, ok := r.s.sales[saleID]
	if !ok || sale.CompanyID != companyID {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return sale, nil
}

func (r *saleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	defer r.s.lock(ctx)()
	sale, err := r.get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	cp := *sale
	cp.Lines = append([]sales.SaleLine(nil), sale.Lines...)
	return &cp, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *saleRepo) ExistsInvoiceNumber(ctx context.Context, number string) (bool, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return false, err
	}
	for _, sale := range r.s.sales {
		if sale.CompanyID == companyID && sale.InvoiceNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *saleRepo) MarkCancelled(ctx context.Context, saleID id.ID, reason string) error {
	defer r.s.lock(ctx)()
	sale, err := r.get(ctx, saleID)
	if err != nil {
		return err
	}
	sale.IsCancelled = true
	sale.CancellationReason = reason
	sale.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *saleRepo) SetPaymentStatus(ctx context.Context, saleID id.ID, status string) error {
	defer r.s.lock(ctx)()
	sale, err := r.get(ctx, saleID)
	if err != nil {
		return err
	}
	sale.PaymentStatus = status
	sale.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *saleRepo) List(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(filter.Search)
	var out []sales.Sale
	for _, sale := range r.s.sales {
		if sale.CompanyID != companyID {
			continue
		}
		if filter.FromDate != nil && sale.InvoiceDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && sale.InvoiceDate.After(*filter.ToDate) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(sale.InvoiceNumber), q) &&
			!strings.Contains(strings.ToLower(sale.CustomerName), q) &&
			!strings.Contains(sale.CustomerPhone, filter.Search) {
			continue
		}
		cp := *sale
		cp.Lines = append([]sales.SaleLine(nil), sale.Lines...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceDate.After(out[j].InvoiceDate) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// ---- purchases ----

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Create(ctx context.Context, purchase *purchases.Purchase) error {
	defer r.s.lock(ctx)()
	cp := *purchase
	cp.Lines = append([]purchases.PurchaseLine(nil), purchase.Lines...)
	r.s.purchases[purchase.ID] = &cp
	return nil
}

func (r *purchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchases.Purchase, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	purchase, ok := r.s.purchases[purchaseID]
	if !ok || purchase.CompanyID != companyID {
		return nil, apperror.NewNotFound("purchase", purchaseID)
	}
	cp := *purchase
	cp.Lines = append([]purchases.PurchaseLine(nil), purchase.Lines...)
	return &cp, nil
}

func (r *purchaseRepo) ExistsPurchaseNumber(ctx context.Context, number string) (bool, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return false, err
	}
	for _, purchase := range r.s.purchases {
		if purchase.CompanyID == companyID && purchase.PurchaseNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *purchaseRepo) SetPaymentStatus(ctx context.Context, purchaseID id.ID, status string, paidAt *time.Time) error {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return err
	}
	purchase, ok := r.s.purchases[purchaseID]
	if !ok || purchase.CompanyID != companyID {
		return apperror.NewNotFound("purchase", purchaseID)
	}
	purchase.PaymentStatus = status
	purchase.PaymentDate = paidAt
	purchase.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *purchaseRepo) List(ctx context.Context, filter purchases.ListFilter) ([]purchases.Purchase, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(filter.Search)
	var out []purchases.Purchase
	for _, purchase := range r.s.purchases {
		if purchase.CompanyID != companyID {
			continue
		}
		if filter.SupplierID != nil && (purchase.SupplierID == nil || *purchase.SupplierID != *filter.SupplierID) {
			continue
		}
		if filter.Status != "" && purchase.PaymentStatus != filter.Status {
			continue
		}
		if filter.FromDate != nil && purchase.PurchaseDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && purchase.PurchaseDate.After(*filter.ToDate) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(purchase.PurchaseNumber), q) &&
			!strings.Contains(strings.ToLower(purchase.SupplierInvoice), q) {
			continue
		}
		cp := *purchase
		cp.Lines = append([]purchases.PurchaseLine(nil), purchase.Lines...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// ---- returns ----

type returnRepo struct{ s *Store }

func (r *returnRepo) Create(ctx context.Context, ret *returns.Return) error {
	defer r.s.lock(ctx)()
	r.s.returns = append(r.s.returns, *ret)
	return nil
}

func (r *returnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	for _, ret := range r.s.returns {
		if ret.ID == returnID && ret.CompanyID == companyID {
			cp := ret
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("return", returnID)
}

func (r *returnRepo) ExistsCreditNoteNumber(ctx context.Context, number string) (bool, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return false, err
	}
	for _, ret := range r.s.returns {
		if ret.CompanyID == companyID && ret.CreditNoteNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *returnRepo) SumReturnedForSaleLine(ctx context.Context, saleID, productID id.ID) (int, error) {
	defer r.s.lock(ctx)()
	sum := 0
	for _, ret := range r.s.returns {
		if ret.SaleID != nil && *ret.SaleID == saleID && ret.ProductID == productID {
			sum += ret.Quantity
		}
	}
	return sum, nil
}

func (r *returnRepo) SumReturnedForPurchaseLine(ctx context.Context, purchaseID, productID id.ID, batchNumber string) (int, error) {
	defer r.s.lock(ctx)()
	sum := 0
	for _, ret := range r.s.returns {
		if ret.PurchaseID != nil && *ret.PurchaseID == purchaseID &&
			ret.ProductID == productID && ret.BatchNumber == batchNumber {
			sum += ret.Quantity
		}
	}
	return sum, nil
}

func (r *returnRepo) List(ctx context.Context, filter returns.ListFilter) ([]returns.Return, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	var out []returns.Return
	for i := len(r.s.returns) - 1; i >= 0; i-- {
		ret := r.s.returns[i]
		if ret.CompanyID != companyID {
			continue
		}
		if filter.Kind != nil && ret.Kind != *filter.Kind {
			continue
		}
		if filter.FromDate != nil && ret.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && ret.CreatedAt.After(*filter.ToDate) {
			continue
		}
		out = append(out, ret)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

// ---- alerts ----

type alertRepo struct{ s *Store }

func (r *alertRepo) Create(ctx context.Context, alert *alerts.Alert) error {
	defer r.s.lock(ctx)()
	cp := *alert
	r.s.alerts[alert.ID] = &cp
	return nil
}

func (r *alertRepo) GetByID(ctx context.Context, alertID id.ID) (*alerts.Alert, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	alert, ok := r.s.alerts[alertID]
	if !ok || alert.CompanyID != companyID {
		return nil, apperror.NewNotFound("alert", alertID)
	}
	cp := *alert
	return &cp, nil
}

func (r *alertRepo) ExistsOpen(ctx context.Context, productID id.ID, ruleName string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, alert := range r.s.alerts {
		if alert.ProductID == productID && alert.RuleName == ruleName && alert.AcknowledgedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *alertRepo) Acknowledge(ctx context.Context, alertID id.ID) error {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return err
	}
	alert, ok := r.s.alerts[alertID]
	if !ok || alert.CompanyID != companyID {
		return apperror.NewNotFound("alert", alertID)
	}
	now := time.Now().UTC()
	alert.AcknowledgedAt = &now
	return nil
}

func (r *alertRepo) List(ctx context.Context, filter alerts.ListFilter) ([]alerts.Alert, error) {
	defer r.s.lock(ctx)()
	companyID, err := companyOf(ctx)
	if err != nil {
		return nil, err
	}
	var out []alerts.Alert
	for _, alert := range r.s.alerts {
		if alert.CompanyID != companyID {
			continue
		}
		if filter.ProductID != nil && alert.ProductID != *filter.ProductID {
			continue
		}
		if filter.RuleName != "" && alert.RuleName != filter.RuleName {
			continue
		}
		if filter.OnlyOpen && alert.AcknowledgedAt != nil {
			continue
		}
		out = append(out, *alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

// ---- users ----

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *auth.User) error {
	defer r.s.lock(ctx)()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *userRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}
