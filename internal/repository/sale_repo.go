package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateItem(ctx context.Context, item *model.SaleItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*model.SaleItem, error)
	Update(ctx context.Context, sale *model.Sale) error
	UpdateItemReturned(ctx context.Context, id uuid.UUID, quantityReturned int) error
	List(ctx context.Context, locationID *uuid.UUID, page, limit int) ([]model.Sale, int64, error)
	NextSaleSeq(ctx context.Context, prefix string) (int64, error)

	CreateSellReturn(ctx context.Context, ret *model.SellReturn) error
	UpdateSellReturn(ctx context.Context, ret *model.SellReturn) error
	CreateSellReturnItem(ctx context.Context, item *model.SellReturnItem) error
	NextSellReturnSeq(ctx context.Context, prefix string) (int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) CreateItem(ctx context.Context, item *model.SaleItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *saleRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Variation").
		Preload("Location").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*model.SaleItem, error) {
	var item model.SaleItem
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *saleRepository) Update(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Save(sale).Error
}

func (r *saleRepository) UpdateItemReturned(ctx context.Context, id uuid.UUID, quantityReturned int) error {
	return GetDB(ctx, r.db).Model(&model.SaleItem{}).
		Where("id = ?", id).
		Update("quantity_returned", quantityReturned).Error
}

func (r *saleRepository) List(ctx context.Context, locationID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{})
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Location").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) NextSaleSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.Sale{}).
		Where("sale_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *saleRepository) CreateSellReturn(ctx context.Context, ret *model.SellReturn) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *saleRepository) UpdateSellReturn(ctx context.Context, ret *model.SellReturn) error {
	return GetDB(ctx, r.db).Save(ret).Error
}

func (r *saleRepository) CreateSellReturnItem(ctx context.Context, item *model.SellReturnItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *saleRepository) NextSellReturnSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.SellReturn{}).
		Where("return_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}
