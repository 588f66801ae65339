package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FinanceRepository owns accounts-payable balances and payment records.
// Payable rows are locked FOR UPDATE before mutation so the balance and
// the payment explaining it always move together.
type FinanceRepository interface {
	FindPayable(ctx context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error)
	FindPayableForUpdate(ctx context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error)
	CreatePayable(ctx context.Context, ap *model.AccountsPayable) error
	UpdatePayable(ctx context.Context, ap *model.AccountsPayable) error

	CreatePayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]model.Payment, int64, error)
	FindPaymentByReferenceNo(ctx context.Context, referenceNo string) (*model.Payment, error)
}

type financeRepository struct {
	db *gorm.DB
}

func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &financeRepository{db: db}
}

func (r *financeRepository) FindPayable(ctx context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error) {
	var ap model.AccountsPayable
	if err := GetDB(ctx, r.db).Where("supplier_id = ?", supplierID).First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *financeRepository) FindPayableForUpdate(ctx context.Context, supplierID uuid.UUID) (*model.AccountsPayable, error) {
	var ap model.AccountsPayable
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("supplier_id = ?", supplierID).First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *financeRepository) CreatePayable(ctx context.Context, ap *model.AccountsPayable) error {
	return GetDB(ctx, r.db).Create(ap).Error
}

func (r *financeRepository) UpdatePayable(ctx context.Context, ap *model.AccountsPayable) error {
	return GetDB(ctx, r.db).Model(&model.AccountsPayable{}).
		Where("id = ?", ap.ID).
		Update("balance", ap.Balance).Error
}

func (r *financeRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *financeRepository) ListPayments(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Payment{})
	if supplierID != nil {
		db = db.Where("supplier_id = ?", *supplierID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *financeRepository) FindPaymentByReferenceNo(ctx context.Context, referenceNo string) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).Where("reference_no = ?", referenceNo).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
