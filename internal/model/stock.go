package model

import (
	"time"

	"github.com/google/uuid"
)

// StockTransactionType enum constants
const (
	StockTxOpening        = "opening_stock"
	StockTxPurchase       = "purchase"
	StockTxSale           = "sale"
	StockTxSellReturn     = "sell_return"
	StockTxTransferIn     = "transfer_in"
	StockTxTransferOut    = "transfer_out"
	StockTxAdjustment     = "adjustment"
	StockTxSupplierReturn = "supplier_return"
)

// StockReferenceType enum constants — the document a ledger row belongs to
const (
	StockRefGoodsReceipt   = "GOODS_RECEIPT"
	StockRefSale           = "SALE"
	StockRefSellReturn     = "SELL_RETURN"
	StockRefTransfer       = "TRANSFER"
	StockRefAdjustment     = "ADJUSTMENT"
	StockRefSupplierReturn = "SUPPLIER_RETURN"
	StockRefOpening        = "OPENING"
)

// StockTransaction is the append-only inventory ledger. Quantity is a signed
// delta; StockAfter snapshots the balance of the (variation, location) pair
// immediately after this row was applied. Rows are never updated or deleted —
// reversals are written as compensating rows.
type StockTransaction struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductVariationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_tx_var_loc" json:"product_variation_id"`
	LocationID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_tx_var_loc" json:"location_id"`
	Type               string     `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity           int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter         int        `gorm:"type:int;not null" json:"stock_after"`
	ReferenceType      string     `gorm:"type:varchar(20);not null;index" json:"reference_type"`
	ReferenceID        *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`
	ReferenceNo        string     `gorm:"type:varchar(50);index" json:"reference_no"`
	Note               string     `gorm:"type:text" json:"note"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
}

// VariationLocationDetail caches the current on-hand quantity per
// (variation, location). Mutated only together with a StockTransaction
// insert, inside the same database transaction, under a row lock.
type VariationLocationDetail struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductVariationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vld_var_loc" json:"product_variation_id"`
	LocationID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vld_var_loc" json:"location_id"`
	QtyAvailable       int       `gorm:"type:int;not null;default:0" json:"qty_available"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
