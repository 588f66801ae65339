package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus enum constants
const (
	SaleStatusCompleted = "completed"
	SaleStatusReturned  = "returned" // fully returned
)

// Sale records an outbound retail transaction at one location
type Sale struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleNo       string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sale_no"`
	LocationID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"location_id"`
	Location     *Location       `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Status       string          `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	CustomerName string          `gorm:"type:varchar(255)" json:"customer_name"`
	Items        []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	SoldBy       *uuid.UUID      `gorm:"type:uuid" json:"sold_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SaleItem is one sold line; QuantityReturned accumulates sell returns
type SaleItem struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductVariationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Variation          *ProductVariation `gorm:"foreignKey:ProductVariationID" json:"variation,omitempty"`
	Quantity           int               `gorm:"type:int;not null" json:"quantity"`
	QuantityReturned   int               `gorm:"type:int;not null;default:0" json:"quantity_returned"`
	UnitPrice          decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	SerialNumberIDs    string            `gorm:"type:jsonb" json:"serial_number_ids"` // JSON array of ProductSerialNumber IDs
}

// SellReturn records goods a customer brought back against a sale
type SellReturn struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnNo    string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"return_no"`
	SaleID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"sale_id"`
	LocationID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"location_id"`
	Items       []SellReturnItem `gorm:"foreignKey:SellReturnID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Reason      string           `gorm:"type:text" json:"reason"`
	CreatedBy   *uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

// SellReturnItem is one returned line of a sell return
type SellReturnItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellReturnID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"sell_return_id"`
	SaleItemID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_item_id"`
	ProductVariationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Quantity           int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	SerialNumberIDs    string          `gorm:"type:jsonb" json:"serial_number_ids"`
}
