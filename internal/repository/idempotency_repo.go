package repository

import (
	"context"

	"poscore/internal/model"

	"gorm.io/gorm"
)

type IdempotencyRepository interface {
	// Claim inserts the key row; the unique (key, scope) index makes a
	// replayed key fail and roll the surrounding transaction back.
	Claim(ctx context.Context, key, scope string) error
	Exists(ctx context.Context, key, scope string) (bool, error)
}

type idempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Claim(ctx context.Context, key, scope string) error {
	return GetDB(ctx, r.db).Create(&model.IdempotencyKey{Key: key, Scope: scope}).Error
}

func (r *idempotencyRepository) Exists(ctx context.Context, key, scope string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.IdempotencyKey{}).
		Where("key = ? AND scope = ?", key, scope).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
