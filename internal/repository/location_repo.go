package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	Update(ctx context.Context, location *model.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	FindByCode(ctx context.Context, code string) (*model.Location, error)
	List(ctx context.Context, page, limit int) ([]model.Location, int64, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, location *model.Location) error {
	return GetDB(ctx, r.db).Create(location).Error
}

func (r *locationRepository) Update(ctx context.Context, location *model.Location) error {
	return GetDB(ctx, r.db).Save(location).Error
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var location model.Location
	if err := GetDB(ctx, r.db).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) FindByCode(ctx context.Context, code string) (*model.Location, error) {
	var location model.Location
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) List(ctx context.Context, page, limit int) ([]model.Location, int64, error) {
	var locations []model.Location
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Location{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&locations).Error; err != nil {
		return nil, 0, err
	}

	return locations, total, nil
}
