package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct        = "CREATE_PRODUCT"
	ActionUpdateProduct        = "UPDATE_PRODUCT"
	ActionDeleteProduct        = "DELETE_PRODUCT"
	ActionCreatePurchase       = "CREATE_PURCHASE"
	ActionReceiveGoods         = "RECEIVE_GOODS"
	ActionCreateSupplierReturn = "CREATE_SUPPLIER_RETURN"
	ActionApproveReturn        = "APPROVE_SUPPLIER_RETURN"
	ActionRejectReturn         = "REJECT_SUPPLIER_RETURN"
	ActionCreateTransfer       = "CREATE_TRANSFER"
	ActionReceiveTransfer      = "RECEIVE_TRANSFER"
	ActionCancelTransfer       = "CANCEL_TRANSFER"
	ActionCreateSale           = "CREATE_SALE"
	ActionCreateSellReturn     = "CREATE_SELL_RETURN"
	ActionCreateExchange       = "CREATE_EXCHANGE"
	ActionStockAdjustment      = "STOCK_ADJUSTMENT"
	ActionOpeningStock         = "OPENING_STOCK"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/document number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
