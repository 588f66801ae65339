package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants
const (
	PaymentMethodCash                 = "cash"
	PaymentMethodBankTransfer         = "bank_transfer"
	PaymentMethodSupplierReturnCredit = "supplier_return_credit"
)

// PaymentDirection enum constants
const (
	PaymentDirectionIn  = "IN"  // money (or credit) flowing to the business
	PaymentDirectionOut = "OUT" // disbursement to a supplier
)

// AccountsPayable holds the running balance owed to one supplier.
// Increased by goods receipts, decreased by supplier returns and
// disbursements; mutated only inside the same transaction as the
// document that explains the change.
type AccountsPayable struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"supplier_id"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Balance    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Payment is the append-only record of money movement. For supplier
// returns the amount equals the return total and is the audit trail
// explaining the AP decrease.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Method        string          `gorm:"type:varchar(30);not null;index" json:"method"`
	Direction     string          `gorm:"type:varchar(5);not null" json:"direction"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	ReferenceType string          `gorm:"type:varchar(20);not null;index" json:"reference_type"`
	ReferenceID   *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id"`
	ReferenceNo   string          `gorm:"type:varchar(50);index" json:"reference_no"`
	Note          string          `gorm:"type:text" json:"note"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}
