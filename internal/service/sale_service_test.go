package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"poscore/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func createTestSale(t *testing.T, f *fixture, locationID uuid.UUID, variationID uuid.UUID, qty int, unitPrice string) *model.Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(context.Background(), uuid.New().String(), CreateSaleRequest{
		LocationID:    locationID.String(),
		CustomerName:  "Walk-in",
		PaymentMethod: model.PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductVariationID: variationID.String(), Quantity: qty, UnitPrice: unitPrice},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale returned error: %v", err)
	}
	return sale
}

func TestCreateSaleMovesStockAndRecordsPayment(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-CABLE", false)
	f.seedBalance(variation.ID, location.ID, 10)

	sale := createTestSale(t, f, location.ID, variation.ID, 3, "99.99")

	if !strings.HasPrefix(sale.SaleNo, "SALE-") {
		t.Fatalf("sale number %q missing SALE prefix", sale.SaleNo)
	}
	if sale.Status != model.SaleStatusCompleted {
		t.Fatalf("status = %s, want %s", sale.Status, model.SaleStatusCompleted)
	}
	want := decimal.RequireFromString("299.97")
	if !sale.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", sale.TotalAmount, want)
	}
	if got := f.balance(variation.ID, location.ID); got != 7 {
		t.Fatalf("balance = %d, want 7", got)
	}
	if len(f.store.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(f.store.payments))
	}
	p := f.store.payments[0]
	if p.Method != model.PaymentMethodCash || p.Direction != model.PaymentDirectionIn || !p.Amount.Equal(want) {
		t.Fatalf("unexpected payment: %+v", p)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-CABLE", false)
	f.seedBalance(variation.ID, location.ID, 2)

	_, err := f.sales.CreateSale(context.Background(), uuid.New().String(), CreateSaleRequest{
		LocationID:    location.ID.String(),
		PaymentMethod: model.PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductVariationID: variation.ID.String(), Quantity: 3, UnitPrice: "10.00"},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestCreateSaleSellsSerial(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-PHONE", true)
	f.seedBalance(variation.ID, location.ID, 1)
	sn := f.seedSerial(variation.ID, location.ID, "SN-001")

	_, err := f.sales.CreateSale(context.Background(), uuid.New().String(), CreateSaleRequest{
		LocationID:    location.ID.String(),
		PaymentMethod: model.PaymentMethodBankTransfer,
		Items: []SaleItemRequest{
			{ProductVariationID: variation.ID.String(), Quantity: 1, UnitPrice: "500.00", SerialNumberIDs: []string{sn.ID.String()}},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale returned error: %v", err)
	}

	sold := f.store.serials[sn.ID]
	if sold.Status != model.SerialStatusSold {
		t.Fatalf("serial status = %s, want %s", sold.Status, model.SerialStatusSold)
	}
	if sold.CurrentLocationID != nil {
		t.Fatal("sold serial still assigned to a location")
	}
}

func TestCreateSaleSerialAtWrongLocation(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	other := f.seedLocation("WH-MAIN")
	variation := f.seedVariation("SKU-PHONE", true)
	f.seedBalance(variation.ID, location.ID, 1)
	sn := f.seedSerial(variation.ID, other.ID, "SN-001")

	_, err := f.sales.CreateSale(context.Background(), uuid.New().String(), CreateSaleRequest{
		LocationID:    location.ID.String(),
		PaymentMethod: model.PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductVariationID: variation.ID.String(), Quantity: 1, UnitPrice: "500.00", SerialNumberIDs: []string{sn.ID.String()}},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "not in stock at the sale location") {
		t.Fatalf("err = %v, want sale-location custody failure", err)
	}
}

func TestSellReturnRestocksAndRefunds(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-CABLE", false)
	f.seedBalance(variation.ID, location.ID, 10)
	sale := createTestSale(t, f, location.ID, variation.ID, 4, "25.00")

	ret, err := f.sales.CreateSellReturn(context.Background(), uuid.New().String(), sale.ID.String(), CreateSellReturnRequest{
		Reason: "changed mind",
		Items: []SellReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateSellReturn returned error: %v", err)
	}

	if !strings.HasPrefix(ret.ReturnNo, "SRN-") {
		t.Fatalf("return number %q missing SRN prefix", ret.ReturnNo)
	}
	want := decimal.RequireFromString("50.00")
	if !ret.TotalAmount.Equal(want) {
		t.Fatalf("return total = %s, want %s", ret.TotalAmount, want)
	}
	if got := f.balance(variation.ID, location.ID); got != 8 {
		t.Fatalf("balance = %d, want 8 after partial return", got)
	}

	// Partial return leaves the sale completed.
	if f.store.sales[sale.ID].Status != model.SaleStatusCompleted {
		t.Fatalf("sale status = %s, want %s", f.store.sales[sale.ID].Status, model.SaleStatusCompleted)
	}

	var refunds int
	for _, p := range f.store.payments {
		if p.Direction == model.PaymentDirectionOut {
			refunds++
			if !p.Amount.Equal(want) {
				t.Fatalf("refund amount = %s, want %s", p.Amount, want)
			}
		}
	}
	if refunds != 1 {
		t.Fatalf("refund payments = %d, want 1", refunds)
	}
}

func TestSellReturnFullMarksSaleReturned(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-CABLE", false)
	f.seedBalance(variation.ID, location.ID, 10)
	sale := createTestSale(t, f, location.ID, variation.ID, 4, "25.00")

	_, err := f.sales.CreateSellReturn(context.Background(), uuid.New().String(), sale.ID.String(), CreateSellReturnRequest{
		Items: []SellReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateSellReturn returned error: %v", err)
	}
	if f.store.sales[sale.ID].Status != model.SaleStatusReturned {
		t.Fatalf("sale status = %s, want %s", f.store.sales[sale.ID].Status, model.SaleStatusReturned)
	}
	if got := f.balance(variation.ID, location.ID); got != 10 {
		t.Fatalf("balance = %d, want 10 after full return", got)
	}
}

func TestSellReturnRejectsOverReturn(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-CABLE", false)
	f.seedBalance(variation.ID, location.ID, 10)
	sale := createTestSale(t, f, location.ID, variation.ID, 4, "25.00")
	itemID := sale.Items[0].ID.String()
	userID := uuid.New().String()

	if _, err := f.sales.CreateSellReturn(context.Background(), userID, sale.ID.String(), CreateSellReturnRequest{
		Items: []SellReturnItemRequest{{SaleItemID: itemID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("first return returned error: %v", err)
	}

	_, err := f.sales.CreateSellReturn(context.Background(), userID, sale.ID.String(), CreateSellReturnRequest{
		Items: []SellReturnItemRequest{{SaleItemID: itemID, Quantity: 2}},
	})
	if err == nil || !strings.Contains(err.Error(), "over-return") {
		t.Fatalf("err = %v, want over-return rejection", err)
	}
}

func TestSellReturnRestoresSerial(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	variation := f.seedVariation("SKU-PHONE", true)
	f.seedBalance(variation.ID, location.ID, 1)
	sn := f.seedSerial(variation.ID, location.ID, "SN-001")

	sale, err := f.sales.CreateSale(context.Background(), uuid.New().String(), CreateSaleRequest{
		LocationID:    location.ID.String(),
		PaymentMethod: model.PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductVariationID: variation.ID.String(), Quantity: 1, UnitPrice: "500.00", SerialNumberIDs: []string{sn.ID.String()}},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale returned error: %v", err)
	}

	_, err = f.sales.CreateSellReturn(context.Background(), uuid.New().String(), sale.ID.String(), CreateSellReturnRequest{
		Items: []SellReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Quantity: 1, SerialNumberIDs: []string{sn.ID.String()}},
		},
	})
	if err != nil {
		t.Fatalf("CreateSellReturn returned error: %v", err)
	}

	back := f.store.serials[sn.ID]
	if back.Status != model.SerialStatusInStock {
		t.Fatalf("serial status = %s, want %s", back.Status, model.SerialStatusInStock)
	}
	if back.CurrentLocationID == nil || *back.CurrentLocationID != location.ID {
		t.Fatal("returned serial not placed back at the sale location")
	}
}

func TestExchangeProducesReturnAndSale(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	varOld := f.seedVariation("SKU-OLD", false)
	varNew := f.seedVariation("SKU-NEW", false)
	f.seedBalance(varOld.ID, location.ID, 10)
	f.seedBalance(varNew.ID, location.ID, 10)
	userID := uuid.New().String()

	sale := createTestSale(t, f, location.ID, varOld.ID, 2, "40.00")

	resp, err := f.sales.Exchange(context.Background(), userID, ExchangeRequest{
		IdempotencyKey: "exch-001",
		SaleID:         sale.ID.String(),
		ReturnItems: []SellReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Quantity: 2},
		},
		NewItems: []SaleItemRequest{
			{ProductVariationID: varNew.ID.String(), Quantity: 1, UnitPrice: "90.00"},
		},
		PaymentMethod: model.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("Exchange returned error: %v", err)
	}
	if resp.ReturnNo == "" || resp.SaleNo == "" {
		t.Fatalf("incomplete exchange response: %+v", resp)
	}

	if got := f.balance(varOld.ID, location.ID); got != 10 {
		t.Fatalf("old variation balance = %d, want 10", got)
	}
	if got := f.balance(varNew.ID, location.ID); got != 9 {
		t.Fatalf("new variation balance = %d, want 9", got)
	}
}

func TestExchangeReplaySameKeyConflicts(t *testing.T) {
	f := newFixture()
	location := f.seedLocation("ST-01")
	varOld := f.seedVariation("SKU-OLD", false)
	varNew := f.seedVariation("SKU-NEW", false)
	f.seedBalance(varOld.ID, location.ID, 10)
	f.seedBalance(varNew.ID, location.ID, 10)
	userID := uuid.New().String()

	sale := createTestSale(t, f, location.ID, varOld.ID, 2, "40.00")
	req := ExchangeRequest{
		IdempotencyKey: "exch-001",
		SaleID:         sale.ID.String(),
		ReturnItems: []SellReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Quantity: 1},
		},
		NewItems: []SaleItemRequest{
			{ProductVariationID: varNew.ID.String(), Quantity: 1, UnitPrice: "90.00"},
		},
		PaymentMethod: model.PaymentMethodCash,
	}

	if _, err := f.sales.Exchange(context.Background(), userID, req); err != nil {
		t.Fatalf("first exchange returned error: %v", err)
	}
	newBalance := f.balance(varNew.ID, location.ID)

	_, err := f.sales.Exchange(context.Background(), userID, req)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on replayed key", err)
	}
	if got := f.balance(varNew.ID, location.ID); got != newBalance {
		t.Fatalf("replayed exchange moved stock: %d -> %d", newBalance, got)
	}
}
