package service

import (
	"context"
	"strings"
	"sync"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore backs the fake repositories with in-memory state so service
// logic can be exercised without a database.
type memStore struct {
	mu sync.Mutex

	locations  map[uuid.UUID]*model.Location
	suppliers  map[uuid.UUID]*model.Supplier
	products   map[uuid.UUID]*model.Product
	variations map[uuid.UUID]*model.ProductVariation
	serials    map[uuid.UUID]*model.ProductSerialNumber

	balances map[string]*model.VariationLocationDetail
	stockTxs []model.StockTransaction

	purchases     map[uuid.UUID]*model.Purchase
	purchaseItems map[uuid.UUID]*model.PurchaseItem
	receipts      map[uuid.UUID]*model.GoodsReceipt
	receiptItems  []*model.GoodsReceiptItem

	returns     map[uuid.UUID]*model.SupplierReturn
	returnItems []*model.SupplierReturnItem

	transfers     map[uuid.UUID]*model.StockTransfer
	transferItems []*model.StockTransferItem

	sales           map[uuid.UUID]*model.Sale
	saleItems       map[uuid.UUID]*model.SaleItem
	sellReturns     map[uuid.UUID]*model.SellReturn
	sellReturnItems []*model.SellReturnItem

	payables map[uuid.UUID]*model.AccountsPayable
	payments []*model.Payment
	idemKeys map[string]bool
	audits   []*model.AuditLog

	seq map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		locations:     make(map[uuid.UUID]*model.Location),
		suppliers:     make(map[uuid.UUID]*model.Supplier),
		products:      make(map[uuid.UUID]*model.Product),
		variations:    make(map[uuid.UUID]*model.ProductVariation),
		serials:       make(map[uuid.UUID]*model.ProductSerialNumber),
		balances:      make(map[string]*model.VariationLocationDetail),
		purchases:     make(map[uuid.UUID]*model.Purchase),
		purchaseItems: make(map[uuid.UUID]*model.PurchaseItem),
		receipts:      make(map[uuid.UUID]*model.GoodsReceipt),
		returns:       make(map[uuid.UUID]*model.SupplierReturn),
		transfers:     make(map[uuid.UUID]*model.StockTransfer),
		sales:         make(map[uuid.UUID]*model.Sale),
		saleItems:     make(map[uuid.UUID]*model.SaleItem),
		sellReturns:   make(map[uuid.UUID]*model.SellReturn),
		payables:      make(map[uuid.UUID]*model.AccountsPayable),
		idemKeys:      make(map[string]bool),
		seq:           make(map[string]int64),
	}
}

func balanceKey(variationID, locationID uuid.UUID) string {
	return variationID.String() + "|" + locationID.String()
}

func (s *memStore) nextSeq(prefix string) int64 {
	s.seq[prefix]++
	return s.seq[prefix]
}

// fakeTxManager runs the closure directly. The fakes cannot roll back, so
// tests assert on the error path before any writes, or on committed state.
type fakeTxManager struct {
	runs int
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.runs++
	return fn(ctx)
}

// --- stock ---

type fakeStockRepo struct{ s *memStore }

func (r *fakeStockRepo) CreateTransaction(_ context.Context, tx *model.StockTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.s.stockTxs = append(r.s.stockTxs, *tx)
	return nil
}

func (r *fakeStockRepo) FindBalance(_ context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error) {
	if b, ok := r.s.balances[balanceKey(variationID, locationID)]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStockRepo) FindBalanceForUpdate(ctx context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error) {
	return r.FindBalance(ctx, variationID, locationID)
}

func (r *fakeStockRepo) CreateBalance(_ context.Context, detail *model.VariationLocationDetail) error {
	if detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}
	r.s.balances[balanceKey(detail.ProductVariationID, detail.LocationID)] = detail
	return nil
}

func (r *fakeStockRepo) UpdateBalance(_ context.Context, detail *model.VariationLocationDetail) error {
	r.s.balances[balanceKey(detail.ProductVariationID, detail.LocationID)] = detail
	return nil
}

func (r *fakeStockRepo) SumDeltas(_ context.Context, variationID, locationID uuid.UUID) (int, error) {
	sum := 0
	for _, tx := range r.s.stockTxs {
		if tx.ProductVariationID == variationID && tx.LocationID == locationID {
			sum += tx.Quantity
		}
	}
	return sum, nil
}

func (r *fakeStockRepo) ListTransactions(_ context.Context, variationID, locationID *uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	var out []model.StockTransaction
	for _, tx := range r.s.stockTxs {
		if variationID != nil && tx.ProductVariationID != *variationID {
			continue
		}
		if locationID != nil && tx.LocationID != *locationID {
			continue
		}
		out = append(out, tx)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) ListBalances(_ context.Context, locationID *uuid.UUID, page, limit int) ([]model.VariationLocationDetail, int64, error) {
	var out []model.VariationLocationDetail
	for _, b := range r.s.balances {
		if locationID != nil && b.LocationID != *locationID {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) AllBalances(_ context.Context) ([]model.VariationLocationDetail, error) {
	var out []model.VariationLocationDetail
	for _, b := range r.s.balances {
		out = append(out, *b)
	}
	return out, nil
}

// --- catalog ---

type fakeProductRepo struct{ s *memStore }

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.s.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.s.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := r.s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) CreateVariation(_ context.Context, v *model.ProductVariation) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.s.variations[v.ID] = v
	return nil
}

func (r *fakeProductRepo) FindVariationByID(_ context.Context, id uuid.UUID) (*model.ProductVariation, error) {
	if v, ok := r.s.variations[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindVariationBySKU(_ context.Context, sku string) (*model.ProductVariation, error) {
	for _, v := range r.s.variations {
		if v.SKU == sku {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSerialRepo struct{ s *memStore }

func (r *fakeSerialRepo) Create(_ context.Context, serial *model.ProductSerialNumber) error {
	if serial.ID == uuid.Nil {
		serial.ID = uuid.New()
	}
	copied := *serial
	r.s.serials[serial.ID] = &copied
	return nil
}

func (r *fakeSerialRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductSerialNumber, error) {
	if sn, ok := r.s.serials[id]; ok {
		copied := *sn
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSerialRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductSerialNumber, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSerialRepo) ExistsSerialNo(_ context.Context, serialNo string) (bool, error) {
	for _, sn := range r.s.serials {
		if sn.SerialNo == serialNo {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSerialRepo) Update(_ context.Context, serial *model.ProductSerialNumber) error {
	copied := *serial
	r.s.serials[serial.ID] = &copied
	return nil
}

func (r *fakeSerialRepo) ListByVariation(_ context.Context, variationID uuid.UUID, status string, locationID *uuid.UUID) ([]model.ProductSerialNumber, error) {
	var out []model.ProductSerialNumber
	for _, sn := range r.s.serials {
		if sn.ProductVariationID != variationID {
			continue
		}
		if status != "" && sn.Status != status {
			continue
		}
		if locationID != nil && (sn.CurrentLocationID == nil || *sn.CurrentLocationID != *locationID) {
			continue
		}
		out = append(out, *sn)
	}
	return out, nil
}

// --- parties ---

type fakeLocationRepo struct{ s *memStore }

func (r *fakeLocationRepo) Create(_ context.Context, location *model.Location) error {
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	r.s.locations[location.ID] = location
	return nil
}

func (r *fakeLocationRepo) Update(_ context.Context, location *model.Location) error {
	r.s.locations[location.ID] = location
	return nil
}

func (r *fakeLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	if l, ok := r.s.locations[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLocationRepo) FindByCode(_ context.Context, code string) (*model.Location, error) {
	for _, l := range r.s.locations {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLocationRepo) List(_ context.Context, page, limit int) ([]model.Location, int64, error) {
	var out []model.Location
	for _, l := range r.s.locations {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

type fakeSupplierRepo struct{ s *memStore }

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.s.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	r.s.suppliers[supplier.ID] = supplier
	return nil
}

func (r *fakeSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.suppliers, id)
	return nil
}

func (r *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	if sp, ok := r.s.suppliers[id]; ok {
		return sp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSupplierRepo) List(_ context.Context, page, limit int, search string) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, sp := range r.s.suppliers {
		out = append(out, *sp)
	}
	return out, int64(len(out)), nil
}

// --- purchasing ---

type fakePurchaseRepo struct{ s *memStore }

func (r *fakePurchaseRepo) Create(_ context.Context, purchase *model.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	r.s.purchases[purchase.ID] = purchase
	return nil
}

func (r *fakePurchaseRepo) CreateItem(_ context.Context, item *model.PurchaseItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.purchaseItems[item.ID] = item
	return nil
}

func (r *fakePurchaseRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	copied.Items = nil
	for _, item := range r.s.purchaseItems {
		if item.PurchaseID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	return &copied, nil
}

func (r *fakePurchaseRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakePurchaseRepo) FindItemForUpdate(_ context.Context, id uuid.UUID) (*model.PurchaseItem, error) {
	if item, ok := r.s.purchaseItems[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) UpdateItemReceived(_ context.Context, id uuid.UUID, quantityReceived int) error {
	if item, ok := r.s.purchaseItems[id]; ok {
		item.QuantityReceived = quantityReceived
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if p, ok := r.s.purchases[id]; ok {
		p.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) List(_ context.Context, status string, page, limit int) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.s.purchases {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) NextPurchaseSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

func (r *fakePurchaseRepo) CreateReceipt(_ context.Context, receipt *model.GoodsReceipt) error {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	r.s.receipts[receipt.ID] = receipt
	return nil
}

func (r *fakePurchaseRepo) CreateReceiptItem(_ context.Context, item *model.GoodsReceiptItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.receiptItems = append(r.s.receiptItems, item)
	return nil
}

func (r *fakePurchaseRepo) UpdateReceiptTotal(_ context.Context, receipt *model.GoodsReceipt) error {
	r.s.receipts[receipt.ID] = receipt
	return nil
}

func (r *fakePurchaseRepo) NextReceiptSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

// --- supplier returns ---

type fakeSupplierReturnRepo struct{ s *memStore }

func (r *fakeSupplierReturnRepo) Create(_ context.Context, ret *model.SupplierReturn) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	r.s.returns[ret.ID] = ret
	return nil
}

func (r *fakeSupplierReturnRepo) CreateItem(_ context.Context, item *model.SupplierReturnItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.returnItems = append(r.s.returnItems, item)
	return nil
}

func (r *fakeSupplierReturnRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.SupplierReturn, error) {
	ret, ok := r.s.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ret
	copied.Items = nil
	for _, item := range r.s.returnItems {
		if item.SupplierReturnID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	return &copied, nil
}

func (r *fakeSupplierReturnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SupplierReturn, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakeSupplierReturnRepo) Update(_ context.Context, ret *model.SupplierReturn) error {
	stored := *ret
	stored.Items = nil
	r.s.returns[ret.ID] = &stored
	return nil
}

func (r *fakeSupplierReturnRepo) List(_ context.Context, status string, page, limit int) ([]model.SupplierReturn, int64, error) {
	var out []model.SupplierReturn
	for _, ret := range r.s.returns {
		if status != "" && ret.Status != status {
			continue
		}
		out = append(out, *ret)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSupplierReturnRepo) NextReturnSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

// --- transfers ---

type fakeTransferRepo struct{ s *memStore }

func (r *fakeTransferRepo) Create(_ context.Context, transfer *model.StockTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	r.s.transfers[transfer.ID] = transfer
	return nil
}

func (r *fakeTransferRepo) CreateItem(_ context.Context, item *model.StockTransferItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.transferItems = append(r.s.transferItems, item)
	return nil
}

func (r *fakeTransferRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	copied.Items = nil
	for _, item := range r.s.transferItems {
		if item.StockTransferID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	return &copied, nil
}

func (r *fakeTransferRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakeTransferRepo) Update(_ context.Context, transfer *model.StockTransfer) error {
	stored := *transfer
	stored.Items = nil
	r.s.transfers[transfer.ID] = &stored
	return nil
}

func (r *fakeTransferRepo) List(_ context.Context, status string, page, limit int) ([]model.StockTransfer, int64, error) {
	var out []model.StockTransfer
	for _, t := range r.s.transfers {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransferRepo) NextTransferSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

// --- sales ---

type fakeSaleRepo struct{ s *memStore }

func (r *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	r.s.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) CreateItem(_ context.Context, item *model.SaleItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.saleItems[item.ID] = item
	return nil
}

func (r *fakeSaleRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sale
	copied.Items = nil
	for _, item := range r.s.saleItems {
		if item.SaleID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	return &copied, nil
}

func (r *fakeSaleRepo) FindItemForUpdate(_ context.Context, id uuid.UUID) (*model.SaleItem, error) {
	if item, ok := r.s.saleItems[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *model.Sale) error {
	stored := *sale
	stored.Items = nil
	r.s.sales[sale.ID] = &stored
	return nil
}

func (r *fakeSaleRepo) UpdateItemReturned(_ context.Context, id uuid.UUID, quantityReturned int) error {
	if item, ok := r.s.saleItems[id]; ok {
		item.QuantityReturned = quantityReturned
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) List(_ context.Context, locationID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, sale := range r.s.sales {
		if locationID != nil && sale.LocationID != *locationID {
			continue
		}
		out = append(out, *sale)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) NextSaleSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

func (r *fakeSaleRepo) CreateSellReturn(_ context.Context, ret *model.SellReturn) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	r.s.sellReturns[ret.ID] = ret
	return nil
}

func (r *fakeSaleRepo) UpdateSellReturn(_ context.Context, ret *model.SellReturn) error {
	stored := *ret
	stored.Items = nil
	r.s.sellReturns[ret.ID] = &stored
	return nil
}

func (r *fakeSaleRepo) CreateSellReturnItem(_ context.Context, item *model.SellReturnItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.sellReturnItems = append(r.s.sellReturnItems, item)
	return nil
}

func (r *fakeSaleRepo) NextSellReturnSeq(_ context.Context, prefix string) (int64, error) {
	return r.s.nextSeq(prefix), nil
}

// --- money ---

type fakeFinanceRepo struct{ s *memStore }

func (r *fakeFinanceRepo) FindPayable(_ context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error) {
	if ap, ok := r.s.payables[supplierID]; ok {
		return ap, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFinanceRepo) FindPayableForUpdate(ctx context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error) {
	return r.FindPayable(ctx, supplierID)
}

func (r *fakeFinanceRepo) CreatePayable(_ context.Context, ap *model.AccountsPayable) error {
	if ap.ID == uuid.Nil {
		ap.ID = uuid.New()
	}
	r.s.payables[ap.SupplierID] = ap
	return nil
}

func (r *fakeFinanceRepo) UpdatePayable(_ context.Context, ap *model.AccountsPayable) error {
	r.s.payables[ap.SupplierID] = ap
	return nil
}

func (r *fakeFinanceRepo) CreatePayment(_ context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.s.payments = append(r.s.payments, payment)
	return nil
}

func (r *fakeFinanceRepo) ListPayments(_ context.Context, supplierID *uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, p := range r.s.payments {
		if supplierID != nil && (p.SupplierID == nil || *p.SupplierID != *supplierID) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeFinanceRepo) FindPaymentByReferenceNo(_ context.Context, referenceNo string) (*model.Payment, error) {
	for _, p := range r.s.payments {
		if p.ReferenceNo == referenceNo {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeIdempotencyRepo struct{ s *memStore }

func (r *fakeIdempotencyRepo) Claim(_ context.Context, key, scope string) error {
	k := key + "|" + scope
	if r.s.idemKeys[k] {
		return gorm.ErrDuplicatedKey
	}
	r.s.idemKeys[k] = true
	return nil
}

func (r *fakeIdempotencyRepo) Exists(_ context.Context, key, scope string) (bool, error) {
	return r.s.idemKeys[key+"|"+scope], nil
}

type fakeAuditRepo struct{ s *memStore }

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.s.audits = append(r.s.audits, entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, a := range r.s.audits {
		if action != "" && a.Action != action {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

// fixture wires a full service graph over one shared memStore.
type fixture struct {
	store *memStore
	tx    *fakeTxManager

	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	serialRepo   repository.SerialRepository
	locationRepo repository.LocationRepository
	supplierRepo repository.SupplierRepository
	purchaseRepo repository.PurchaseRepository
	returnRepo   repository.SupplierReturnRepository
	transferRepo repository.TransferRepository
	saleRepo     repository.SaleRepository
	financeRepo  repository.FinanceRepository
	idemRepo     repository.IdempotencyRepository
	auditRepo    repository.AuditRepository

	ledger    StockLedger
	purchases PurchaseService
	returns   SupplierReturnService
	transfers TransferService
	sales     SaleService
	stock     StockService
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{
		store:        s,
		tx:           &fakeTxManager{},
		stockRepo:    &fakeStockRepo{s: s},
		productRepo:  &fakeProductRepo{s: s},
		serialRepo:   &fakeSerialRepo{s: s},
		locationRepo: &fakeLocationRepo{s: s},
		supplierRepo: &fakeSupplierRepo{s: s},
		purchaseRepo: &fakePurchaseRepo{s: s},
		returnRepo:   &fakeSupplierReturnRepo{s: s},
		transferRepo: &fakeTransferRepo{s: s},
		saleRepo:     &fakeSaleRepo{s: s},
		financeRepo:  &fakeFinanceRepo{s: s},
		idemRepo:     &fakeIdempotencyRepo{s: s},
		auditRepo:    &fakeAuditRepo{s: s},
	}
	f.ledger = NewStockLedger(f.stockRepo, nil)
	f.purchases = NewPurchaseService(f.purchaseRepo, f.supplierRepo, f.locationRepo, f.productRepo, f.serialRepo, f.financeRepo, f.auditRepo, f.ledger, f.tx)
	f.returns = NewSupplierReturnService(f.returnRepo, f.supplierRepo, f.locationRepo, f.productRepo, f.serialRepo, f.financeRepo, f.auditRepo, f.ledger, f.tx)
	f.transfers = NewTransferService(f.transferRepo, f.locationRepo, f.productRepo, f.serialRepo, f.auditRepo, f.ledger, f.tx)
	f.sales = NewSaleService(f.saleRepo, f.locationRepo, f.productRepo, f.serialRepo, f.financeRepo, f.idemRepo, f.auditRepo, f.ledger, f.tx)
	f.stock = NewStockService(f.stockRepo, f.productRepo, f.locationRepo, f.idemRepo, f.auditRepo, f.ledger, f.tx)
	return f
}

func (f *fixture) seedLocation(code string) *model.Location {
	loc := &model.Location{ID: uuid.New(), Code: code, Name: code, Type: model.LocationTypeWarehouse, IsActive: true}
	f.store.locations[loc.ID] = loc
	return loc
}

func (f *fixture) seedSupplier(name string) *model.Supplier {
	sp := &model.Supplier{ID: uuid.New(), Name: name, IsActive: true}
	f.store.suppliers[sp.ID] = sp
	return sp
}

func (f *fixture) seedVariation(sku string, serialTracked bool) *model.ProductVariation {
	product := &model.Product{ID: uuid.New(), Name: sku}
	f.store.products[product.ID] = product
	v := &model.ProductVariation{
		ID:            uuid.New(),
		ProductID:     product.ID,
		SKU:           sku,
		Name:          sku,
		SerialTracked: serialTracked,
	}
	f.store.variations[v.ID] = v
	return v
}

func (f *fixture) seedBalance(variationID, locationID uuid.UUID, qty int) {
	f.store.balances[balanceKey(variationID, locationID)] = &model.VariationLocationDetail{
		ID:                 uuid.New(),
		ProductVariationID: variationID,
		LocationID:         locationID,
		QtyAvailable:       qty,
	}
	f.store.stockTxs = append(f.store.stockTxs, model.StockTransaction{
		ID:                 uuid.New(),
		ProductVariationID: variationID,
		LocationID:         locationID,
		Type:               model.StockTxOpening,
		Quantity:           qty,
		StockAfter:         qty,
		ReferenceType:      model.StockRefOpening,
	})
}

func (f *fixture) seedSerial(variationID, locationID uuid.UUID, serialNo string) *model.ProductSerialNumber {
	loc := locationID
	sn := &model.ProductSerialNumber{
		ID:                 uuid.New(),
		ProductVariationID: variationID,
		SerialNo:           serialNo,
		Status:             model.SerialStatusInStock,
		CurrentLocationID:  &loc,
	}
	f.store.serials[sn.ID] = sn
	return sn
}

func (f *fixture) balance(variationID, locationID uuid.UUID) int {
	if b, ok := f.store.balances[balanceKey(variationID, locationID)]; ok {
		return b.QtyAvailable
	}
	return 0
}

func (f *fixture) payableBalance(supplierID uuid.UUID) decimal.Decimal {
	if ap, ok := f.store.payables[supplierID]; ok {
		return ap.Balance
	}
	return decimal.Zero
}
