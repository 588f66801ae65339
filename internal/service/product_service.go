package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type VariationRequest struct {
	SKU           string `json:"sku" binding:"required"`
	Name          string `json:"name" binding:"required"`
	PurchaseCost  string `json:"purchase_cost"`
	SellingPrice  string `json:"selling_price"`
	SerialTracked bool   `json:"serial_tracked"`
}

type CreateProductRequest struct {
	Name       string             `json:"name" binding:"required"`
	Brand      string             `json:"brand"`
	Category   string             `json:"category"`
	Variations []VariationRequest `json:"variations" binding:"required,min=1,dive"`
}

type UpdateProductRequest struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
}

type ProductService interface {
	Create(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, userID string, id string, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, userID string, id string) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	AddVariation(ctx context.Context, userID string, productID string, req VariationRequest) (*model.ProductVariation, error)
	ListSerials(ctx context.Context, variationID, status, locationID string) ([]model.ProductSerialNumber, error)
}

type productService struct {
	productRepo repository.ProductRepository
	serialRepo  repository.SerialRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	serialRepo repository.SerialRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		serialRepo:  serialRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, raw)
	}
	return value, nil
}

func (s *productService) buildVariation(productID uuid.UUID, req VariationRequest) (*model.ProductVariation, error) {
	cost, err := parseMoney(req.PurchaseCost, "purchase_cost")
	if err != nil {
		return nil, err
	}
	price, err := parseMoney(req.SellingPrice, "selling_price")
	if err != nil {
		return nil, err
	}
	return &model.ProductVariation{
		ProductID:     productID,
		SKU:           req.SKU,
		Name:          req.Name,
		PurchaseCost:  cost,
		SellingPrice:  price,
		SerialTracked: req.SerialTracked,
	}, nil
}

func (s *productService) Create(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	for _, v := range req.Variations {
		if _, err := s.productRepo.FindVariationBySKU(ctx, v.SKU); err == nil {
			return nil, fmt.Errorf("%w: sku %s already exists", ErrConflict, v.SKU)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
	}

	product := &model.Product{
		Name:     req.Name,
		Brand:    req.Brand,
		Category: req.Category,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}

		for _, v := range req.Variations {
			variation, buildErr := s.buildVariation(product.ID, v)
			if buildErr != nil {
				return buildErr
			}
			if createErr := s.productRepo.CreateVariation(txCtx, variation); createErr != nil {
				return fmt.Errorf("failed to create variation %s: %w", v.SKU, createErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"name":       req.Name,
			"variations": len(req.Variations),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})

	if err != nil {
		return nil, err
	}
	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *productService) Update(ctx context.Context, userID string, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Brand != "" {
		product.Brand = req.Brand
	}
	if req.Category != "" {
		product.Category = req.Category
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to update product: %w", saveErr)
		}
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
		}
		return s.auditRepo.Log(txCtx, audit)
	})

	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, userID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.productRepo.Delete(txCtx, productID); delErr != nil {
			return fmt.Errorf("failed to delete product: %w", delErr)
		}
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionDeleteProduct,
			EntityID:   productID.String(),
			EntityName: product.Name,
		}
		return s.auditRepo.Log(txCtx, audit)
	})
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, page, limit, search)
}

func (s *productService) AddVariation(ctx context.Context, userID string, productID string, req VariationRequest) (*model.ProductVariation, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if _, err := s.productRepo.FindVariationBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("%w: sku %s already exists", ErrConflict, req.SKU)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}

	variation, err := s.buildVariation(pid, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.CreateVariation(txCtx, variation); createErr != nil {
			return fmt.Errorf("failed to create variation: %w", createErr)
		}
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionUpdateProduct,
			EntityID:   pid.String(),
			EntityName: req.SKU,
		}
		return s.auditRepo.Log(txCtx, audit)
	})

	if err != nil {
		return nil, err
	}
	return variation, nil
}

func (s *productService) ListSerials(ctx context.Context, variationID, status, locationID string) ([]model.ProductSerialNumber, error) {
	vid, err := uuid.Parse(variationID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_variation_id: %w", err)
	}

	var locFilter *uuid.UUID
	if locationID != "" {
		parsed, parseErr := uuid.Parse(locationID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid location_id: %w", parseErr)
		}
		locFilter = &parsed
	}

	return s.serialRepo.ListByVariation(ctx, vid, status, locFilter)
}
