package service

import (
	"context"
	"errors"
	"fmt"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	TaxCode       string `json:"tax_code"`
	CompanyName   string `json:"company_name"`
	BankAccount   string `json:"bank_account"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

// SupplierPayableResponse is the supplier statement: the running balance
// plus the payment history explaining how it got there.
type SupplierPayableResponse struct {
	SupplierID string          `json:"supplier_id"`
	Balance    decimal.Decimal `json:"balance"`
	Payments   []model.Payment `json:"payments"`
	Total      int64           `json:"total"`
}

type SupplierService interface {
	Create(ctx context.Context, req SupplierRequest) (*model.Supplier, error)
	Update(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error)
	GetPayable(ctx context.Context, id string, page, limit int) (*SupplierPayableResponse, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	financeRepo  repository.FinanceRepository
}

func NewSupplierService(supplierRepo repository.SupplierRepository, financeRepo repository.FinanceRepository) SupplierService {
	return &supplierService{supplierRepo: supplierRepo, financeRepo: financeRepo}
}

func (s *supplierService) Create(ctx context.Context, req SupplierRequest) (*model.Supplier, error) {
	supplier := &model.Supplier{
		Name:          req.Name,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error) {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.TaxCode = req.TaxCode
	supplier.CompanyName = req.CompanyName
	supplier.BankAccount = req.BankAccount
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) Delete(ctx context.Context, id string) error {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// A supplier still owed money cannot be removed
	payable, payErr := s.financeRepo.FindPayable(ctx, supplier.ID)
	if payErr != nil && !errors.Is(payErr, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check payable: %w", payErr)
	}
	if payable != nil && !payable.Balance.IsZero() {
		return fmt.Errorf("%w: supplier has outstanding balance %s", ErrConflict, payable.Balance.StringFixed(4))
	}

	return s.supplierRepo.Delete(ctx, supplier.ID)
}

func (s *supplierService) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id: %w", err)
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, page, limit int, search string) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.supplierRepo.List(ctx, page, limit, search)
}

func (s *supplierService) GetPayable(ctx context.Context, id string, page, limit int) (*SupplierPayableResponse, error) {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	balance := decimal.Zero
	payable, payErr := s.financeRepo.FindPayable(ctx, supplier.ID)
	if payErr != nil && !errors.Is(payErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find payable: %w", payErr)
	}
	if payable != nil {
		balance = payable.Balance
	}

	sid := supplier.ID
	payments, total, listErr := s.financeRepo.ListPayments(ctx, &sid, page, limit)
	if listErr != nil {
		return nil, fmt.Errorf("failed to list payments: %w", listErr)
	}

	return &SupplierPayableResponse{
		SupplierID: supplier.ID.String(),
		Balance:    balance,
		Payments:   payments,
		Total:      total,
	}, nil
}
