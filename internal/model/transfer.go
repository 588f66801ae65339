package model

import (
	"time"

	"github.com/google/uuid"
)

// StockTransferStatus enum constants
const (
	TransferInTransit = "in_transit"
	TransferReceived  = "received"
	TransferCancelled = "cancelled"
)

// StockTransfer moves stock between two locations. Dispatch writes
// transfer_out rows at the source; receipt writes transfer_in rows at the
// destination, so the system-wide quantity per variation nets to zero.
type StockTransfer struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferNo     string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"transfer_no"`
	FromLocationID uuid.UUID           `gorm:"type:uuid;not null;index" json:"from_location_id"`
	FromLocation   *Location           `gorm:"foreignKey:FromLocationID" json:"from_location,omitempty"`
	ToLocationID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"to_location_id"`
	ToLocation     *Location           `gorm:"foreignKey:ToLocationID" json:"to_location,omitempty"`
	Status         string              `gorm:"type:varchar(20);not null;default:'in_transit';index" json:"status"`
	Items          []StockTransferItem `gorm:"foreignKey:StockTransferID;constraint:OnDelete:CASCADE" json:"items"`
	Note           string              `gorm:"type:text" json:"note"`
	CreatedBy      *uuid.UUID          `gorm:"type:uuid" json:"created_by"`
	ReceivedBy     *uuid.UUID          `gorm:"type:uuid" json:"received_by"`
	ReceivedAt     *time.Time          `json:"received_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// StockTransferItem is one transferred line
type StockTransferItem struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockTransferID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"stock_transfer_id"`
	ProductVariationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Variation          *ProductVariation `gorm:"foreignKey:ProductVariationID" json:"variation,omitempty"`
	Quantity           int               `gorm:"type:int;not null" json:"quantity"`
	SerialNumberIDs    string            `gorm:"type:jsonb" json:"serial_number_ids"` // JSON array of ProductSerialNumber IDs
}
