package database

import (
	"poscore/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate auto-migrates all core models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Location{},
		&model.Supplier{},
		&model.Product{},
		&model.ProductVariation{},
		&model.ProductSerialNumber{},
		&model.StockTransaction{},
		&model.VariationLocationDetail{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.GoodsReceipt{},
		&model.GoodsReceiptItem{},
		&model.SupplierReturn{},
		&model.SupplierReturnItem{},
		&model.StockTransfer{},
		&model.StockTransferItem{},
		&model.Sale{},
		&model.SaleItem{},
		&model.SellReturn{},
		&model.SellReturnItem{},
		&model.AccountsPayable{},
		&model.Payment{},
		&model.IdempotencyKey{},
		&model.AuditLog{},
	)
}
