package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs

type AdjustStockRequest struct {
	IdempotencyKey     string `json:"idempotency_key" binding:"required"`
	ProductVariationID string `json:"product_variation_id" binding:"required"`
	LocationID         string `json:"location_id" binding:"required"`
	Quantity           int    `json:"quantity" binding:"required"` // signed delta
	Reason             string `json:"reason" binding:"required"`
	AllowNegative      bool   `json:"allow_negative"`
}

type OpeningStockRequest struct {
	ProductVariationID string `json:"product_variation_id" binding:"required"`
	LocationID         string `json:"location_id" binding:"required"`
	Quantity           int    `json:"quantity" binding:"required,gt=0"`
}

type StockService interface {
	Adjust(ctx context.Context, userID string, req AdjustStockRequest) (*model.StockTransaction, error)
	OpeningStock(ctx context.Context, userID string, req OpeningStockRequest) (*model.StockTransaction, error)
	GetStock(ctx context.Context, locationID string, page, limit int) ([]model.VariationLocationDetail, int64, error)
	GetLedger(ctx context.Context, variationID, locationID string, page, limit int) ([]model.StockTransaction, int64, error)
	Reconcile(ctx context.Context) ([]ReconciliationRow, error)
}

type stockService struct {
	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	idemRepo     repository.IdempotencyRepository
	auditRepo    repository.AuditRepository
	ledger       StockLedger
	txManager    repository.TransactionManager
}

func NewStockService(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	idemRepo repository.IdempotencyRepository,
	auditRepo repository.AuditRepository,
	ledger StockLedger,
	txManager repository.TransactionManager,
) StockService {
	return &stockService{
		stockRepo:    stockRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		idemRepo:     idemRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
	}
}

func (s *stockService) resolvePair(ctx context.Context, rawVariationID, rawLocationID string) (uuid.UUID, uuid.UUID, error) {
	variationID, err := uuid.Parse(rawVariationID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid product_variation_id: %w", err)
	}
	locationID, err := uuid.Parse(rawLocationID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid location_id: %w", err)
	}

	if _, err := s.productRepo.FindVariationByID(ctx, variationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: product variation %s", ErrNotFound, rawVariationID)
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to find variation: %w", err)
	}
	if _, err := s.locationRepo.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: location %s", ErrNotFound, rawLocationID)
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to find location: %w", err)
	}

	return variationID, locationID, nil
}

// Adjust writes a manual correction to the ledger. The reason is mandatory
// and lands in the ledger row; driving a balance negative needs the
// explicit allow_negative override.
func (s *stockService) Adjust(ctx context.Context, userID string, req AdjustStockRequest) (*model.StockTransaction, error) {
	if req.Quantity == 0 {
		return nil, errors.New("adjustment quantity must not be zero")
	}

	variationID, locationID, err := s.resolvePair(ctx, req.ProductVariationID, req.LocationID)
	if err != nil {
		return nil, err
	}

	var entry *model.StockTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		replayed, idemErr := s.idemRepo.Exists(txCtx, req.IdempotencyKey, model.IdemScopeAdjustment)
		if idemErr != nil {
			return fmt.Errorf("failed to check idempotency key: %w", idemErr)
		}
		if replayed {
			return fmt.Errorf("%w: idempotency key %s already used", ErrConflict, req.IdempotencyKey)
		}
		if claimErr := s.idemRepo.Claim(txCtx, req.IdempotencyKey, model.IdemScopeAdjustment); claimErr != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}

		applied, applyErr := s.ledger.Apply(txCtx, StockMovement{
			VariationID:   variationID,
			LocationID:    locationID,
			Quantity:      req.Quantity,
			Type:          model.StockTxAdjustment,
			ReferenceType: model.StockRefAdjustment,
			ReferenceNo:   req.IdempotencyKey,
			Note:          req.Reason,
			AllowNegative: req.AllowNegative,
		})
		if applyErr != nil {
			return applyErr
		}
		entry = applied

		uid := parseUserID(userID)
		details, _ := json.Marshal(map[string]interface{}{
			"idempotency_key":      req.IdempotencyKey,
			"product_variation_id": req.ProductVariationID,
			"location_id":          req.LocationID,
			"quantity":             req.Quantity,
			"reason":               req.Reason,
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionStockAdjustment,
			EntityID: entry.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return entry, nil
}

// OpeningStock seeds the initial on-hand quantity for a pair. Allowed
// only once: any existing ledger activity for the pair rejects it.
func (s *stockService) OpeningStock(ctx context.Context, userID string, req OpeningStockRequest) (*model.StockTransaction, error) {
	variationID, locationID, err := s.resolvePair(ctx, req.ProductVariationID, req.LocationID)
	if err != nil {
		return nil, err
	}

	var entry *model.StockTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, txCount, listErr := s.stockRepo.ListTransactions(txCtx, &variationID, &locationID, 1, 1)
		if listErr != nil {
			return fmt.Errorf("failed to check ledger history: %w", listErr)
		}
		if txCount > 0 {
			return fmt.Errorf("%w: pair already has ledger activity", ErrConflict)
		}

		applied, applyErr := s.ledger.Apply(txCtx, StockMovement{
			VariationID:   variationID,
			LocationID:    locationID,
			Quantity:      req.Quantity,
			Type:          model.StockTxOpening,
			ReferenceType: model.StockRefOpening,
		})
		if applyErr != nil {
			return applyErr
		}
		entry = applied

		uid := parseUserID(userID)
		details, _ := json.Marshal(map[string]interface{}{
			"product_variation_id": req.ProductVariationID,
			"location_id":          req.LocationID,
			"quantity":             req.Quantity,
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionOpeningStock,
			EntityID: entry.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stockService) GetStock(ctx context.Context, locationID string, page, limit int) ([]model.VariationLocationDetail, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var locFilter *uuid.UUID
	if locationID != "" {
		parsed, err := uuid.Parse(locationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid location_id: %w", err)
		}
		locFilter = &parsed
	}

	return s.stockRepo.ListBalances(ctx, locFilter, page, limit)
}

func (s *stockService) GetLedger(ctx context.Context, variationID, locationID string, page, limit int) ([]model.StockTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var varFilter, locFilter *uuid.UUID
	if variationID != "" {
		parsed, err := uuid.Parse(variationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid product_variation_id: %w", err)
		}
		varFilter = &parsed
	}
	if locationID != "" {
		parsed, err := uuid.Parse(locationID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid location_id: %w", err)
		}
		locFilter = &parsed
	}

	return s.stockRepo.ListTransactions(ctx, varFilter, locFilter, page, limit)
}

func (s *stockService) Reconcile(ctx context.Context) ([]ReconciliationRow, error) {
	return s.ledger.Reconcile(ctx)
}
