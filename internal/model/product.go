package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product groups one or more sellable variations under a common name
type Product struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string             `gorm:"type:varchar(255);not null" json:"name"`
	Brand      string             `gorm:"type:varchar(100)" json:"brand"`
	Category   string             `gorm:"type:varchar(100);index" json:"category"`
	Variations []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variations"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	DeletedAt  gorm.DeletedAt     `gorm:"index" json:"-"`
}

// ProductVariation is the unit stock is tracked against. Serial-tracked
// variations require one ProductSerialNumber row per physical unit.
type ProductVariation struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU           string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	PurchaseCost  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_cost"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"selling_price"`
	SerialTracked bool            `gorm:"not null;default:false" json:"serial_tracked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// SerialStatus enum constants
const (
	SerialStatusInStock        = "in_stock"
	SerialStatusSold           = "sold"
	SerialStatusTransferred    = "transferred"
	SerialStatusSupplierReturn = "supplier_return"
)

// ProductSerialNumber represents one physical serialized unit.
// CurrentLocationID is null once the unit leaves business custody
// (sold or returned to the supplier) and while it is in transit.
type ProductSerialNumber struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductVariationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	SerialNo           string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_no"`
	Status             string     `gorm:"type:varchar(20);not null;default:'in_stock';index" json:"status"`
	CurrentLocationID  *uuid.UUID `gorm:"type:uuid;index" json:"current_location_id"`
	ReceivedReceiptID  *uuid.UUID `gorm:"type:uuid" json:"received_receipt_id"` // GRN the unit arrived on
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
