package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.StockTransfer) error
	CreateItem(ctx context.Context, item *model.StockTransferItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	Update(ctx context.Context, transfer *model.StockTransfer) error
	List(ctx context.Context, status string, page, limit int) ([]model.StockTransfer, int64, error)
	NextTransferSeq(ctx context.Context, prefix string) (int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) CreateItem(ctx context.Context, item *model.StockTransferItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *transferRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Variation").
		Preload("FromLocation").
		Preload("ToLocation").
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	var transfer model.StockTransfer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) Update(ctx context.Context, transfer *model.StockTransfer) error {
	return GetDB(ctx, r.db).Save(transfer).Error
}

func (r *transferRepository) List(ctx context.Context, status string, page, limit int) ([]model.StockTransfer, int64, error) {
	var transfers []model.StockTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransfer{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("FromLocation").
		Preload("ToLocation").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}

func (r *transferRepository) NextTransferSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.StockTransfer{}).
		Where("transfer_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}
