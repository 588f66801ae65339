package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository owns the inventory ledger and its derived balance cache.
// Ledger rows are insert-only; balances are read under FOR UPDATE so two
// concurrent movements on the same (variation, location) pair serialize.
type StockRepository interface {
	CreateTransaction(ctx context.Context, tx *model.StockTransaction) error
	FindBalance(ctx context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error)
	FindBalanceForUpdate(ctx context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error)
	CreateBalance(ctx context.Context, detail *model.VariationLocationDetail) error
	UpdateBalance(ctx context.Context, detail *model.VariationLocationDetail) error
	SumDeltas(ctx context.Context, variationID, locationID uuid.UUID) (int, error)
	ListTransactions(ctx context.Context, variationID, locationID *uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error)
	ListBalances(ctx context.Context, locationID *uuid.UUID, page, limit int) ([]model.VariationLocationDetail, int64, error)
	AllBalances(ctx context.Context) ([]model.VariationLocationDetail, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) CreateTransaction(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *stockRepository) FindBalance(ctx context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error) {
	var detail model.VariationLocationDetail
	if err := GetDB(ctx, r.db).
		Where("product_variation_id = ? AND location_id = ?", variationID, locationID).
		First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *stockRepository) FindBalanceForUpdate(ctx context.Context, variationID, locationID uuid.UUID) (*model.VariationLocationDetail, error) {
	var detail model.VariationLocationDetail
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_variation_id = ? AND location_id = ?", variationID, locationID).
		First(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *stockRepository) CreateBalance(ctx context.Context, detail *model.VariationLocationDetail) error {
	return GetDB(ctx, r.db).Create(detail).Error
}

func (r *stockRepository) UpdateBalance(ctx context.Context, detail *model.VariationLocationDetail) error {
	return GetDB(ctx, r.db).Model(&model.VariationLocationDetail{}).
		Where("id = ?", detail.ID).
		Update("qty_available", detail.QtyAvailable).Error
}

func (r *stockRepository) SumDeltas(ctx context.Context, variationID, locationID uuid.UUID) (int, error) {
	var sum *int
	if err := GetDB(ctx, r.db).Model(&model.StockTransaction{}).
		Select("SUM(quantity)").
		Where("product_variation_id = ? AND location_id = ?", variationID, locationID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *stockRepository) ListTransactions(ctx context.Context, variationID, locationID *uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	var txs []model.StockTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransaction{})
	if variationID != nil {
		db = db.Where("product_variation_id = ?", *variationID)
	}
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *stockRepository) ListBalances(ctx context.Context, locationID *uuid.UUID, page, limit int) ([]model.VariationLocationDetail, int64, error) {
	var details []model.VariationLocationDetail
	var total int64

	db := GetDB(ctx, r.db).Model(&model.VariationLocationDetail{})
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&details).Error; err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *stockRepository) AllBalances(ctx context.Context) ([]model.VariationLocationDetail, error) {
	var details []model.VariationLocationDetail
	if err := GetDB(ctx, r.db).Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}
