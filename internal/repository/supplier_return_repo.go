package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierReturnRepository interface {
	Create(ctx context.Context, ret *model.SupplierReturn) error
	CreateItem(ctx context.Context, item *model.SupplierReturnItem) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.SupplierReturn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SupplierReturn, error)
	Update(ctx context.Context, ret *model.SupplierReturn) error
	List(ctx context.Context, status string, page, limit int) ([]model.SupplierReturn, int64, error)
	NextReturnSeq(ctx context.Context, prefix string) (int64, error)
}

type supplierReturnRepository struct {
	db *gorm.DB
}

func NewSupplierReturnRepository(db *gorm.DB) SupplierReturnRepository {
	return &supplierReturnRepository{db: db}
}

func (r *supplierReturnRepository) Create(ctx context.Context, ret *model.SupplierReturn) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *supplierReturnRepository) CreateItem(ctx context.Context, item *model.SupplierReturnItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *supplierReturnRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.SupplierReturn, error) {
	var ret model.SupplierReturn
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Variation").
		Preload("Supplier").
		Preload("Location").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *supplierReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SupplierReturn, error) {
	var ret model.SupplierReturn
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *supplierReturnRepository) Update(ctx context.Context, ret *model.SupplierReturn) error {
	return GetDB(ctx, r.db).Save(ret).Error
}

func (r *supplierReturnRepository) List(ctx context.Context, status string, page, limit int) ([]model.SupplierReturn, int64, error) {
	var returns []model.SupplierReturn
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SupplierReturn{})
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
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}

func (r *supplierReturnRepository) NextReturnSeq(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.SupplierReturn{}).
		Where("return_no LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}
