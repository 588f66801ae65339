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

func createTestPurchase(t *testing.T, f *fixture, variationID uuid.UUID, qty int, unitCost string) *model.Purchase {
	t.Helper()
	supplier := f.seedSupplier("Acme Components")
	location := f.seedLocation("WH-MAIN")
	purchase, err := f.purchases.CreatePurchase(context.Background(), uuid.New().String(), CreatePurchaseRequest{
		SupplierID: supplier.ID.String(),
		LocationID: location.ID.String(),
		Items: []PurchaseItemRequest{
			{ProductVariationID: variationID.String(), Quantity: qty, UnitCost: unitCost},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase returned error: %v", err)
	}
	return purchase
}

func TestCreatePurchaseDoesNotMoveStock(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)

	purchase := createTestPurchase(t, f, variation.ID, 10, "12.50")

	if purchase.Status != model.PurchaseStatusOrdered {
		t.Fatalf("status = %s, want %s", purchase.Status, model.PurchaseStatusOrdered)
	}
	if !strings.HasPrefix(purchase.PurchaseNo, "PO-") {
		t.Fatalf("purchase number %q missing PO prefix", purchase.PurchaseNo)
	}
	if len(purchase.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(purchase.Items))
	}
	// Ordering is a commitment, not a stock movement.
	if len(f.store.stockTxs) != 0 {
		t.Fatalf("ledger rows = %d, want 0 before receipt", len(f.store.stockTxs))
	}
	if got := f.balance(variation.ID, purchase.LocationID); got != 0 {
		t.Fatalf("balance = %d, want 0 before receipt", got)
	}
}

func TestCreatePurchaseUnknownSupplier(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)
	location := f.seedLocation("WH-MAIN")

	_, err := f.purchases.CreatePurchase(context.Background(), uuid.New().String(), CreatePurchaseRequest{
		SupplierID: uuid.New().String(),
		LocationID: location.ID.String(),
		Items: []PurchaseItemRequest{
			{ProductVariationID: variation.ID.String(), Quantity: 1, UnitCost: "1.00"},
		},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReceiveGoodsFullReceipt(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)
	purchase := createTestPurchase(t, f, variation.ID, 10, "12.50")

	resp, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{
			{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 10},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveGoods returned error: %v", err)
	}

	if !strings.HasPrefix(resp.ReceiptNo, "GRN-") {
		t.Fatalf("receipt number %q missing GRN prefix", resp.ReceiptNo)
	}
	if resp.PurchaseStatus != model.PurchaseStatusReceived {
		t.Fatalf("purchase status = %s, want %s", resp.PurchaseStatus, model.PurchaseStatusReceived)
	}
	if got := f.balance(variation.ID, purchase.LocationID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
	if len(f.store.stockTxs) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(f.store.stockTxs))
	}
	tx := f.store.stockTxs[0]
	if tx.Type != model.StockTxPurchase || tx.Quantity != 10 || tx.ReferenceNo != resp.ReceiptNo {
		t.Fatalf("unexpected ledger row: %+v", tx)
	}

	// The receipt owes the supplier 10 * 12.50.
	want := decimal.RequireFromString("125.00")
	if got := f.payableBalance(purchase.SupplierID); !got.Equal(want) {
		t.Fatalf("payable = %s, want %s", got, want)
	}
}

func TestReceiveGoodsPartialThenComplete(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)
	purchase := createTestPurchase(t, f, variation.ID, 10, "2.00")
	itemID := purchase.Items[0].ID.String()
	userID := uuid.New().String()

	resp, err := f.purchases.ReceiveGoods(context.Background(), userID, purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{{PurchaseItemID: itemID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("first receipt returned error: %v", err)
	}
	if resp.PurchaseStatus != model.PurchaseStatusPartiallyReceived {
		t.Fatalf("status after partial = %s, want %s", resp.PurchaseStatus, model.PurchaseStatusPartiallyReceived)
	}

	resp, err = f.purchases.ReceiveGoods(context.Background(), userID, purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{{PurchaseItemID: itemID, Quantity: 6}},
	})
	if err != nil {
		t.Fatalf("second receipt returned error: %v", err)
	}
	if resp.PurchaseStatus != model.PurchaseStatusReceived {
		t.Fatalf("status after completion = %s, want %s", resp.PurchaseStatus, model.PurchaseStatusReceived)
	}
	if got := f.balance(variation.ID, purchase.LocationID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
	want := decimal.RequireFromString("20.00")
	if got := f.payableBalance(purchase.SupplierID); !got.Equal(want) {
		t.Fatalf("payable = %s, want %s", got, want)
	}
}

func TestReceiveGoodsRejectsOverReceipt(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)
	purchase := createTestPurchase(t, f, variation.ID, 5, "2.00")

	_, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 6}},
	})
	if err == nil || !strings.Contains(err.Error(), "over-receipt") {
		t.Fatalf("err = %v, want over-receipt rejection", err)
	}
}

func TestReceiveGoodsRejectsSettledPurchase(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-CABLE", false)
	purchase := createTestPurchase(t, f, variation.ID, 5, "2.00")
	itemID := purchase.Items[0].ID.String()
	userID := uuid.New().String()

	if _, err := f.purchases.ReceiveGoods(context.Background(), userID, purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{{PurchaseItemID: itemID, Quantity: 5}},
	}); err != nil {
		t.Fatalf("receipt returned error: %v", err)
	}

	_, err := f.purchases.ReceiveGoods(context.Background(), userID, purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{{PurchaseItemID: itemID, Quantity: 1}},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on received purchase", err)
	}
}

func TestReceiveGoodsSerialTracked(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-PHONE", true)
	purchase := createTestPurchase(t, f, variation.ID, 2, "300.00")

	resp, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{
			{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 2, SerialNumbers: []string{"SN-001", "SN-002"}},
		},
	})
	if err != nil {
		t.Fatalf("ReceiveGoods returned error: %v", err)
	}
	if len(f.store.serials) != 2 {
		t.Fatalf("serials = %d, want 2", len(f.store.serials))
	}
	for _, sn := range f.store.serials {
		if sn.Status != model.SerialStatusInStock {
			t.Fatalf("serial %s status = %s, want %s", sn.SerialNo, sn.Status, model.SerialStatusInStock)
		}
		if sn.CurrentLocationID == nil || *sn.CurrentLocationID != purchase.LocationID {
			t.Fatalf("serial %s not placed at receiving location", sn.SerialNo)
		}
		if sn.ReceivedReceiptID == nil {
			t.Fatalf("serial %s missing receipt link", sn.SerialNo)
		}
	}
	_ = resp
}

func TestReceiveGoodsSerialCountMismatch(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-PHONE", true)
	purchase := createTestPurchase(t, f, variation.ID, 3, "300.00")

	_, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{
			{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 3, SerialNumbers: []string{"SN-001", "SN-002"}},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "serial count mismatch") {
		t.Fatalf("err = %v, want serial count mismatch", err)
	}
}

func TestReceiveGoodsDuplicateSerial(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-PHONE", true)
	f.seedSerial(variation.ID, f.seedLocation("WH-OTHER").ID, "SN-TAKEN")
	purchase := createTestPurchase(t, f, variation.ID, 1, "300.00")

	_, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{
			{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 1, SerialNumbers: []string{"SN-TAKEN"}},
		},
	})
	if !errors.Is(err, ErrDuplicateSerial) {
		t.Fatalf("err = %v, want ErrDuplicateSerial", err)
	}
}

func TestReceiveGoodsDuplicateSerialWithinReceipt(t *testing.T) {
	f := newFixture()
	variation := f.seedVariation("SKU-PHONE", true)
	purchase := createTestPurchase(t, f, variation.ID, 2, "300.00")

	_, err := f.purchases.ReceiveGoods(context.Background(), uuid.New().String(), purchase.ID.String(), ReceiveGoodsRequest{
		Items: []ReceiptItemRequest{
			{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 2, SerialNumbers: []string{"SN-001", "SN-001"}},
		},
	})
	if !errors.Is(err, ErrDuplicateSerial) {
		t.Fatalf("err = %v, want ErrDuplicateSerial", err)
	}
}
