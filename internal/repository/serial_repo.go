package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SerialRepository interface {
	Create(ctx context.Context, serial *model.ProductSerialNumber) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductSerialNumber, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductSerialNumber, error)
	ExistsSerialNo(ctx context.Context, serialNo string) (bool, error)
	Update(ctx context.Context, serial *model.ProductSerialNumber) error
	ListByVariation(ctx context.Context, variationID uuid.UUID, status string, locationID *uuid.UUID) ([]model.ProductSerialNumber, error)
}

type serialRepository struct {
	db *gorm.DB
}

func NewSerialRepository(db *gorm.DB) SerialRepository {
	return &serialRepository{db: db}
}

func (r *serialRepository) Create(ctx context.Context, serial *model.ProductSerialNumber) error {
	return GetDB(ctx, r.db).Create(serial).Error
}

func (r *serialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductSerialNumber, error) {
	var serial model.ProductSerialNumber
	if err := GetDB(ctx, r.db).First(&serial, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &serial, nil
}

func (r *serialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductSerialNumber, error) {
	var serial model.ProductSerialNumber
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&serial, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &serial, nil
}

func (r *serialRepository) ExistsSerialNo(ctx context.Context, serialNo string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.ProductSerialNumber{}).
		Where("serial_no = ?", serialNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *serialRepository) Update(ctx context.Context, serial *model.ProductSerialNumber) error {
	return GetDB(ctx, r.db).Save(serial).Error
}

func (r *serialRepository) ListByVariation(ctx context.Context, variationID uuid.UUID, status string, locationID *uuid.UUID) ([]model.ProductSerialNumber, error) {
	var serials []model.ProductSerialNumber
	db := GetDB(ctx, r.db).Where("product_variation_id = ?", variationID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if locationID != nil {
		db = db.Where("current_location_id = ?", *locationID)
	}
	if err := db.Order("serial_no").Find(&serials).Error; err != nil {
		return nil, err
	}
	return serials, nil
}
