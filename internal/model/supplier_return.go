package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierReturnStatus enum constants
const (
	SupplierReturnPending  = "pending"
	SupplierReturnApproved = "approved"
	SupplierReturnRejected = "rejected"
)

// SupplierReturn sends goods back to a supplier. Approval is the
// safety-critical operation: it must atomically write compensating ledger
// rows, flip serial custody, reduce the supplier's payable balance, and
// record a supplier_return_credit payment for the return total.
type SupplierReturn struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnNo        string               `gorm:"type:varchar(50);uniqueIndex;not null" json:"return_no"`
	SupplierID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier        *Supplier            `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	LocationID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"location_id"`
	Location        *Location            `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Status          string               `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Items           []SupplierReturnItem `gorm:"foreignKey:SupplierReturnID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Reason          string               `gorm:"type:text" json:"reason"`
	RejectionReason string               `gorm:"type:text" json:"rejection_reason"`
	CreatedBy       *uuid.UUID           `gorm:"type:uuid" json:"created_by"`
	ApprovedBy      *uuid.UUID           `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt      *time.Time           `json:"approved_at"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// SupplierReturnItem is one returned line; SerialNumberIDs holds the
// serialized units being returned for serial-tracked variations.
type SupplierReturnItem struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierReturnID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"supplier_return_id"`
	ProductVariationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_variation_id"`
	Variation          *ProductVariation `gorm:"foreignKey:ProductVariationID" json:"variation,omitempty"`
	Quantity           int               `gorm:"type:int;not null" json:"quantity"`
	UnitCost           decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	SerialNumberIDs    string            `gorm:"type:jsonb" json:"serial_number_ids"` // JSON array of ProductSerialNumber IDs
}
