package model

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey deduplicates client retries on mutating endpoints that
// have no natural document number of their own (stock adjustments,
// exchanges). The row is inserted inside the same transaction as the
// operation's writes, so a replayed key fails the unique index before
// any effect commits.
type IdempotencyKey struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_idem_key_scope" json:"key"`
	Scope     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_idem_key_scope" json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

// IdempotencyScope enum constants
const (
	IdemScopeAdjustment = "STOCK_ADJUSTMENT"
	IdemScopeExchange   = "EXCHANGE"
)
