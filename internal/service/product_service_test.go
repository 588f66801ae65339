package service

import (
	"context"
	"errors"
	"testing"

	"poscore/internal/model"

	"github.com/google/uuid"
)

func newProductService(f *fixture) ProductService {
	return NewProductService(f.productRepo, f.serialRepo, f.auditRepo, f.tx)
}

func TestCreateProductWithVariations(t *testing.T) {
	f := newFixture()
	svc := newProductService(f)

	product, err := svc.Create(context.Background(), uuid.New().String(), CreateProductRequest{
		Name:     "USB Cable",
		Brand:    "Generic",
		Category: "accessories",
		Variations: []VariationRequest{
			{SKU: "CAB-1M", Name: "1m", PurchaseCost: "1.50", SellingPrice: "4.99"},
			{SKU: "CAB-2M", Name: "2m", PurchaseCost: "2.00", SellingPrice: "6.99"},
		},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if product.Name != "USB Cable" {
		t.Fatalf("name = %q", product.Name)
	}
	if len(f.store.variations) != 2 {
		t.Fatalf("variations = %d, want 2", len(f.store.variations))
	}
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newFixture()
	svc := newProductService(f)
	f.seedVariation("CAB-1M", false)

	_, err := svc.Create(context.Background(), uuid.New().String(), CreateProductRequest{
		Name: "USB Cable",
		Variations: []VariationRequest{
			{SKU: "CAB-1M", Name: "1m"},
		},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCreateProductNegativePrice(t *testing.T) {
	f := newFixture()
	svc := newProductService(f)

	_, err := svc.Create(context.Background(), uuid.New().String(), CreateProductRequest{
		Name: "USB Cable",
		Variations: []VariationRequest{
			{SKU: "CAB-1M", Name: "1m", SellingPrice: "-5"},
		},
	})
	if err == nil {
		t.Fatal("expected error for negative selling price")
	}
}

func TestAddVariationToExistingProduct(t *testing.T) {
	f := newFixture()
	svc := newProductService(f)
	existing := f.seedVariation("CAB-1M", false)

	variation, err := svc.AddVariation(context.Background(), uuid.New().String(), existing.ProductID.String(), VariationRequest{
		SKU:           "CAB-3M",
		Name:          "3m",
		SellingPrice:  "9.99",
		SerialTracked: false,
	})
	if err != nil {
		t.Fatalf("AddVariation returned error: %v", err)
	}
	if variation.ProductID != existing.ProductID {
		t.Fatal("variation attached to the wrong product")
	}

	_, err = svc.AddVariation(context.Background(), uuid.New().String(), existing.ProductID.String(), VariationRequest{
		SKU:  "CAB-1M",
		Name: "duplicate",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for duplicate sku", err)
	}
}

func TestListSerialsFilters(t *testing.T) {
	f := newFixture()
	svc := newProductService(f)
	location := f.seedLocation("WH-MAIN")
	other := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-PHONE", true)
	f.seedSerial(variation.ID, location.ID, "SN-001")
	f.seedSerial(variation.ID, other.ID, "SN-002")
	sold := f.seedSerial(variation.ID, location.ID, "SN-003")
	sold.Status = model.SerialStatusSold
	sold.CurrentLocationID = nil

	serials, err := svc.ListSerials(context.Background(), variation.ID.String(), model.SerialStatusInStock, location.ID.String())
	if err != nil {
		t.Fatalf("ListSerials returned error: %v", err)
	}
	if len(serials) != 1 || serials[0].SerialNo != "SN-001" {
		t.Fatalf("serials = %+v, want only SN-001", serials)
	}
}

func TestSupplierDeleteBlockedByPayable(t *testing.T) {
	f := newFixture()
	svc := NewSupplierService(f.supplierRepo, f.financeRepo)
	supplier := f.seedSupplier("Acme Components")
	seedPayable(f, supplier.ID, "120.00")

	err := svc.Delete(context.Background(), supplier.ID.String())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for outstanding balance", err)
	}

	f.store.payables[supplier.ID].Balance = f.store.payables[supplier.ID].Balance.Sub(f.store.payables[supplier.ID].Balance)
	if err := svc.Delete(context.Background(), supplier.ID.String()); err != nil {
		t.Fatalf("Delete returned error after balance cleared: %v", err)
	}
}

func TestSupplierGetPayable(t *testing.T) {
	f := newFixture()
	svc := NewSupplierService(f.supplierRepo, f.financeRepo)
	supplier := f.seedSupplier("Acme Components")
	seedPayable(f, supplier.ID, "450.00")
	f.store.payments = append(f.store.payments, &model.Payment{
		ID:         uuid.New(),
		SupplierID: &supplier.ID,
		Method:     model.PaymentMethodSupplierReturnCredit,
		Direction:  model.PaymentDirectionIn,
	})

	resp, err := svc.GetPayable(context.Background(), supplier.ID.String(), 1, 20)
	if err != nil {
		t.Fatalf("GetPayable returned error: %v", err)
	}
	if resp.Balance.String() != "450" {
		t.Fatalf("balance = %s, want 450", resp.Balance)
	}
	if resp.Total != 1 || len(resp.Payments) != 1 {
		t.Fatalf("payments = %d (total %d), want 1", len(resp.Payments), resp.Total)
	}
}

func TestSupplierGetPayableWithoutHistory(t *testing.T) {
	f := newFixture()
	svc := NewSupplierService(f.supplierRepo, f.financeRepo)
	supplier := f.seedSupplier("Fresh Supplier")

	resp, err := svc.GetPayable(context.Background(), supplier.ID.String(), 1, 20)
	if err != nil {
		t.Fatalf("GetPayable returned error: %v", err)
	}
	if !resp.Balance.IsZero() {
		t.Fatalf("balance = %s, want 0 for supplier without receipts", resp.Balance)
	}
}

func TestLocationCreateRejectsDuplicateCode(t *testing.T) {
	f := newFixture()
	svc := NewLocationService(f.locationRepo)
	f.seedLocation("WH-MAIN")

	_, err := svc.Create(context.Background(), LocationRequest{
		Code: "WH-MAIN",
		Name: "Main warehouse",
		Type: model.LocationTypeWarehouse,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for duplicate code", err)
	}

	created, err := svc.Create(context.Background(), LocationRequest{
		Code: "ST-01",
		Name: "Downtown store",
		Type: model.LocationTypeStore,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !created.IsActive {
		t.Fatal("new location not active")
	}
}
