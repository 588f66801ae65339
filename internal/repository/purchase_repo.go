package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	CreateItem(ctx context.Context, item *model.PurchaseItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseItem, error)
	UpdateItemReceived(ctx context.Context, id uuid.UUID, quantityReceived int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, status string, page, limit int) ([]model.Purchase, int64, error)
	NextPurchaseSeq(ctx context.Context, prefix string) (int64, error)

	CreateReceipt(ctx context.Context, receipt *model.GoodsReceipt) error
	CreateReceiptItem(ctx context.Context, item *model.GoodsReceiptItem) error
	UpdateReceiptTotal(ctx context.Context, receipt *model.GoodsReceipt) error
	NextReceiptSeq(ctx context.Context, prefix string) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) CreateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Variation").
		Preload("Supplier").
		Preload("Location").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseItem, error) {
	var item model.PurchaseItem
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *purchaseRepository) UpdateItemReceived(ctx context.Context, id uuid.UUID, quantityReceived int) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseItem{}).
		Where("id = ?", id).
		Update("quantity_received", quantityReceived).Error
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Purchase{}).Where("id = ?", id).Update("status", status).Error
}

func (r *purchaseRepository) List(ctx context.Context, status string, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Purchase{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Supplier").
		Preload("Location").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

// NextPurchaseSeq returns the next sequence for a day-scoped prefix.
// A transaction-scoped advisory lock prevents duplicate numbers under
// concurrent creation.
func (r *purchaseRepository) NextPurchaseSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.Purchase{}).
		Where("purchase_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *purchaseRepository) CreateReceipt(ctx context.Context, receipt *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

func (r *purchaseRepository) CreateReceiptItem(ctx context.Context, item *model.GoodsReceiptItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) UpdateReceiptTotal(ctx context.Context, receipt *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Model(&model.GoodsReceipt{}).
		Where("id = ?", receipt.ID).
		Update("total_value", receipt.TotalValue).Error
}

func (r *purchaseRepository) NextReceiptSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.GoodsReceipt{}).
		Where("receipt_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}
