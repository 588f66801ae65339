package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus enum constants
const (
	PurchaseStatusOrdered           = "ordered"
	PurchaseStatusPartiallyReceived = "partially_received"
	PurchaseStatusReceived          = "received"
	PurchaseStatusCancelled         = "cancelled"
)

// Purchase is a purchase order against a supplier for one location
type Purchase struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseNo string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"purchase_no"`
	SupplierID uuid.UUID      `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier   *Supplier      `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	LocationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"location_id"`
	Location   *Location      `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Status     string         `gorm:"type:varchar(30);not null;default:'ordered';index" json:"status"`
	Items      []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
	Note       string         `gorm:"type:text" json:"note"`
	CreatedBy  *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PurchaseItem tracks ordered quantity against cumulative received quantity.
// QuantityReceived never exceeds Quantity — over-receipt attempts are
// rejected at receipt time, not clipped.
type PurchaseItem struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductVariationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Variation          *ProductVariation `gorm:"foreignKey:ProductVariationID" json:"variation,omitempty"`
	Quantity           int               `gorm:"type:int;not null" json:"quantity"`
	QuantityReceived   int               `gorm:"type:int;not null;default:0" json:"quantity_received"`
	UnitCost           decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
}

// GoodsReceipt records one physical receipt (GRN) against a purchase order
type GoodsReceipt struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceiptNo  string             `gorm:"type:varchar(50);uniqueIndex;not null" json:"receipt_no"`
	PurchaseID uuid.UUID          `gorm:"type:uuid;not null;index" json:"purchase_id"`
	Purchase   *Purchase          `gorm:"foreignKey:PurchaseID" json:"purchase,omitempty"`
	LocationID uuid.UUID          `gorm:"type:uuid;not null;index" json:"location_id"`
	Items      []GoodsReceiptItem `gorm:"foreignKey:GoodsReceiptID;constraint:OnDelete:CASCADE" json:"items"`
	TotalValue decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0" json:"total_value"`
	Note       string             `gorm:"type:text" json:"note"`
	ReceivedBy *uuid.UUID         `gorm:"type:uuid" json:"received_by"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// GoodsReceiptItem is one received line of a GRN
type GoodsReceiptItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GoodsReceiptID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_receipt_id"`
	PurchaseItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_item_id"`
	ProductVariationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Quantity           int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
}
