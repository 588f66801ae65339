package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)

	CreateVariation(ctx context.Context, v *model.ProductVariation) error
	FindVariationByID(ctx context.Context, id uuid.UUID) (*model.ProductVariation, error)
	FindVariationBySKU(ctx context.Context, sku string) (*model.ProductVariation, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Variations").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Variations").Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) CreateVariation(ctx context.Context, v *model.ProductVariation) error {
	return GetDB(ctx, r.db).Create(v).Error
}

func (r *productRepository) FindVariationByID(ctx context.Context, id uuid.UUID) (*model.ProductVariation, error) {
	var variation model.ProductVariation
	if err := GetDB(ctx, r.db).First(&variation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variation, nil
}

func (r *productRepository) FindVariationBySKU(ctx context.Context, sku string) (*model.ProductVariation, error) {
	var variation model.ProductVariation
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&variation).Error; err != nil {
		return nil, err
	}
	return &variation, nil
}
