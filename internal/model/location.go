package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationType enum constants
const (
	LocationTypeWarehouse = "WAREHOUSE"
	LocationTypeStore     = "STORE"
)

// Location is a physical stock-keeping site (warehouse or retail store)
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Type      string         `gorm:"type:varchar(20);not null;default:'WAREHOUSE'" json:"type"`
	Address   string         `gorm:"type:text" json:"address"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
