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

type SaleItemRequest struct {
	ProductVariationID string   `json:"product_variation_id" binding:"required"`
	Quantity           int      `json:"quantity" binding:"required,gt=0"`
	UnitPrice          string   `json:"unit_price" binding:"required"`
	SerialNumberIDs    []string `json:"serial_number_ids"`
}

type CreateSaleRequest struct {
	LocationID    string            `json:"location_id" binding:"required"`
	CustomerName  string            `json:"customer_name"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=cash bank_transfer"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SellReturnItemRequest struct {
	SaleItemID      string   `json:"sale_item_id" binding:"required"`
	Quantity        int      `json:"quantity" binding:"required,gt=0"`
	SerialNumberIDs []string `json:"serial_number_ids"`
}

type CreateSellReturnRequest struct {
	Reason string                  `json:"reason"`
	Items  []SellReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ExchangeRequest struct {
	IdempotencyKey string                  `json:"idempotency_key" binding:"required"`
	SaleID         string                  `json:"sale_id" binding:"required"`
	ReturnItems    []SellReturnItemRequest `json:"return_items" binding:"required,min=1,dive"`
	NewItems       []SaleItemRequest       `json:"new_items" binding:"required,min=1,dive"`
	PaymentMethod  string                  `json:"payment_method" binding:"required,oneof=cash bank_transfer"`
}

type ExchangeResponse struct {
	ReturnNo string `json:"return_no"`
	SaleNo   string `json:"sale_no"`
}

type SaleService interface {
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, locationID string, page, limit int) ([]model.Sale, int64, error)
	CreateSellReturn(ctx context.Context, userID string, saleID string, req CreateSellReturnRequest) (*model.SellReturn, error)
	Exchange(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResponse, error)
}

type saleService struct {
	saleRepo     repository.SaleRepository
	locationRepo repository.LocationRepository
	productRepo  repository.ProductRepository
	serialRepo   repository.SerialRepository
	financeRepo  repository.FinanceRepository
	idemRepo     repository.IdempotencyRepository
	auditRepo    repository.AuditRepository
	ledger       StockLedger
	txManager    repository.TransactionManager
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	serialRepo repository.SerialRepository,
	financeRepo repository.FinanceRepository,
	idemRepo repository.IdempotencyRepository,
	auditRepo repository.AuditRepository,
	ledger StockLedger,
	txManager repository.TransactionManager,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		locationRepo: locationRepo,
		productRepo:  productRepo,
		serialRepo:   serialRepo,
		financeRepo:  financeRepo,
		idemRepo:     idemRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
	}
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error) {
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location_id: %w", err)
	}
	if _, err := s.locationRepo.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: location %s", ErrNotFound, req.LocationID)
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}

	var sale *model.Sale
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		created, createErr := s.createSaleInTx(txCtx, userID, locationID, req)
		if createErr != nil {
			return createErr
		}
		sale = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return s.saleRepo.FindByIDWithItems(ctx, sale.ID)
}

// createSaleInTx contains the sale's writes so Exchange can reuse them
// inside its own transaction.
func (s *saleService) createSaleInTx(txCtx context.Context, userID string, locationID uuid.UUID, req CreateSaleRequest) (*model.Sale, error) {
	prefix := dayPrefix("SALE")
	seq, seqErr := s.saleRepo.NextSaleSeq(txCtx, prefix)
	if seqErr != nil {
		return nil, fmt.Errorf("failed to generate sale number: %w", seqErr)
	}

	uid := parseUserID(userID)
	sale := &model.Sale{
		SaleNo:       formatDocNo(prefix, seq),
		LocationID:   locationID,
		Status:       model.SaleStatusCompleted,
		CustomerName: req.CustomerName,
		SoldBy:       uid,
	}
	if createErr := s.saleRepo.Create(txCtx, sale); createErr != nil {
		return nil, fmt.Errorf("failed to create sale: %w", createErr)
	}

	total := decimal.Zero
	for _, itemReq := range req.Items {
		variationID, parseErr := uuid.Parse(itemReq.ProductVariationID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid product_variation_id: %w", parseErr)
		}

		variation, varErr := s.productRepo.FindVariationByID(txCtx, variationID)
		if varErr != nil {
			if errors.Is(varErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product variation %s", ErrNotFound, itemReq.ProductVariationID)
			}
			return nil, fmt.Errorf("failed to find variation: %w", varErr)
		}

		unitPrice, priceErr := decimal.NewFromString(itemReq.UnitPrice)
		if priceErr != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("invalid unit_price %q for variation %s", itemReq.UnitPrice, variation.SKU)
		}

		if variation.SerialTracked && len(itemReq.SerialNumberIDs) != itemReq.Quantity {
			return nil, fmt.Errorf("serial count mismatch for %s: expected %d serial ids, got %d",
				variation.SKU, itemReq.Quantity, len(itemReq.SerialNumberIDs))
		}
		if !variation.SerialTracked && len(itemReq.SerialNumberIDs) > 0 {
			return nil, fmt.Errorf("variation %s is not serial tracked", variation.SKU)
		}

		if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
			VariationID:   variationID,
			LocationID:    locationID,
			Quantity:      -itemReq.Quantity,
			Type:          model.StockTxSale,
			ReferenceType: model.StockRefSale,
			ReferenceID:   &sale.ID,
			ReferenceNo:   sale.SaleNo,
		}); applyErr != nil {
			return nil, applyErr
		}

		for _, rawID := range itemReq.SerialNumberIDs {
			serialID, sErr := uuid.Parse(rawID)
			if sErr != nil {
				return nil, fmt.Errorf("invalid serial id %q: %w", rawID, sErr)
			}
			serial, lockErr := s.serialRepo.FindByIDForUpdate(txCtx, serialID)
			if lockErr != nil {
				if errors.Is(lockErr, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: serial %s", ErrNotFound, rawID)
				}
				return nil, fmt.Errorf("failed to lock serial: %w", lockErr)
			}
			if serial.ProductVariationID != variationID {
				return nil, fmt.Errorf("serial %s does not belong to variation %s", serial.SerialNo, variation.SKU)
			}
			if serial.Status != model.SerialStatusInStock || serial.CurrentLocationID == nil || *serial.CurrentLocationID != locationID {
				return nil, fmt.Errorf("serial %s is not in stock at the sale location", serial.SerialNo)
			}
			serial.Status = model.SerialStatusSold
			serial.CurrentLocationID = nil
			if updErr := s.serialRepo.Update(txCtx, serial); updErr != nil {
				return nil, fmt.Errorf("failed to update serial %s: %w", serial.SerialNo, updErr)
			}
		}

		serialJSON, _ := json.Marshal(itemReq.SerialNumberIDs)
		item := &model.SaleItem{
			SaleID:             sale.ID,
			ProductVariationID: variationID,
			Quantity:           itemReq.Quantity,
			UnitPrice:          unitPrice,
			SerialNumberIDs:    string(serialJSON),
		}
		if itemErr := s.saleRepo.CreateItem(txCtx, item); itemErr != nil {
			return nil, fmt.Errorf("failed to create sale item: %w", itemErr)
		}

		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
	}

	sale.TotalAmount = total
	if saveErr := s.saleRepo.Update(txCtx, sale); saveErr != nil {
		return nil, fmt.Errorf("failed to save sale total: %w", saveErr)
	}

	payment := &model.Payment{
		Method:        req.PaymentMethod,
		Direction:     model.PaymentDirectionIn,
		Amount:        total,
		ReferenceType: model.StockRefSale,
		ReferenceID:   &sale.ID,
		ReferenceNo:   sale.SaleNo,
		CreatedBy:     uid,
	}
	if payErr := s.financeRepo.CreatePayment(txCtx, payment); payErr != nil {
		return nil, fmt.Errorf("failed to create payment: %w", payErr)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"sale_no":      sale.SaleNo,
		"total_amount": total.StringFixed(4),
	})
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionCreateSale,
		EntityID:   sale.ID.String(),
		EntityName: sale.SaleNo,
		Details:    string(details),
	}
	if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", auditErr)
	}

	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid sale id: %w", err)
	}

	sale, err := s.saleRepo.FindByIDWithItems(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, locationID string, page, limit int) ([]model.Sale, int64, error) {
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

	return s.saleRepo.List(ctx, locFilter, page, limit)
}

func (s *saleService) CreateSellReturn(ctx context.Context, userID string, saleID string, req CreateSellReturnRequest) (*model.SellReturn, error) {
	sid, err := uuid.Parse(saleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale id: %w", err)
	}

	var ret *model.SellReturn
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		created, createErr := s.createSellReturnInTx(txCtx, userID, sid, req)
		if createErr != nil {
			return createErr
		}
		ret = created
		return nil
	})

	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *saleService) createSellReturnInTx(txCtx context.Context, userID string, saleID uuid.UUID, req CreateSellReturnRequest) (*model.SellReturn, error) {
	sale, findErr := s.saleRepo.FindByIDWithItems(txCtx, saleID)
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", ErrNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to find sale: %w", findErr)
	}

	prefix := dayPrefix("SRN")
	seq, seqErr := s.saleRepo.NextSellReturnSeq(txCtx, prefix)
	if seqErr != nil {
		return nil, fmt.Errorf("failed to generate return number: %w", seqErr)
	}

	uid := parseUserID(userID)
	ret := &model.SellReturn{
		ReturnNo:   formatDocNo(prefix, seq),
		SaleID:     sale.ID,
		LocationID: sale.LocationID,
		Reason:     req.Reason,
		CreatedBy:  uid,
	}
	if createErr := s.saleRepo.CreateSellReturn(txCtx, ret); createErr != nil {
		return nil, fmt.Errorf("failed to create sell return: %w", createErr)
	}

	total := decimal.Zero
	fullyReturned := true
	for _, itemReq := range req.Items {
		itemID, parseErr := uuid.Parse(itemReq.SaleItemID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid sale_item_id: %w", parseErr)
		}

		item, lockErr := s.saleRepo.FindItemForUpdate(txCtx, itemID)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: sale item %s", ErrNotFound, itemReq.SaleItemID)
			}
			return nil, fmt.Errorf("failed to lock sale item: %w", lockErr)
		}
		if item.SaleID != sale.ID {
			return nil, fmt.Errorf("sale item %s does not belong to sale %s", itemReq.SaleItemID, sale.SaleNo)
		}

		if item.QuantityReturned+itemReq.Quantity > item.Quantity {
			return nil, fmt.Errorf("over-return on sale item %s: sold %d, already returned %d, returning %d",
				itemReq.SaleItemID, item.Quantity, item.QuantityReturned, itemReq.Quantity)
		}

		if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
			VariationID:   item.ProductVariationID,
			LocationID:    sale.LocationID,
			Quantity:      itemReq.Quantity,
			Type:          model.StockTxSellReturn,
			ReferenceType: model.StockRefSellReturn,
			ReferenceID:   &ret.ID,
			ReferenceNo:   ret.ReturnNo,
		}); applyErr != nil {
			return nil, applyErr
		}

		// Sold serialized units come back into custody at the sale location
		for _, rawID := range itemReq.SerialNumberIDs {
			serialID, sErr := uuid.Parse(rawID)
			if sErr != nil {
				return nil, fmt.Errorf("invalid serial id %q: %w", rawID, sErr)
			}
			serial, serialErr := s.serialRepo.FindByIDForUpdate(txCtx, serialID)
			if serialErr != nil {
				return nil, fmt.Errorf("failed to lock serial %s: %w", rawID, serialErr)
			}
			if serial.Status != model.SerialStatusSold {
				return nil, fmt.Errorf("serial %s was not sold", serial.SerialNo)
			}
			if serial.ProductVariationID != item.ProductVariationID {
				return nil, fmt.Errorf("serial %s does not belong to the returned item", serial.SerialNo)
			}
			loc := sale.LocationID
			serial.Status = model.SerialStatusInStock
			serial.CurrentLocationID = &loc
			if updErr := s.serialRepo.Update(txCtx, serial); updErr != nil {
				return nil, fmt.Errorf("failed to update serial %s: %w", serial.SerialNo, updErr)
			}
		}

		if recvErr := s.saleRepo.UpdateItemReturned(txCtx, item.ID, item.QuantityReturned+itemReq.Quantity); recvErr != nil {
			return nil, fmt.Errorf("failed to update returned quantity: %w", recvErr)
		}

		serialJSON, _ := json.Marshal(itemReq.SerialNumberIDs)
		retItem := &model.SellReturnItem{
			SellReturnID:       ret.ID,
			SaleItemID:         item.ID,
			ProductVariationID: item.ProductVariationID,
			Quantity:           itemReq.Quantity,
			UnitPrice:          item.UnitPrice,
			SerialNumberIDs:    string(serialJSON),
		}
		if itemErr := s.saleRepo.CreateSellReturnItem(txCtx, retItem); itemErr != nil {
			return nil, fmt.Errorf("failed to create sell return item: %w", itemErr)
		}

		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
	}

	// Mark the sale fully returned when every line came back
	fresh, freshErr := s.saleRepo.FindByIDWithItems(txCtx, sale.ID)
	if freshErr != nil {
		return nil, fmt.Errorf("failed to reload sale: %w", freshErr)
	}
	for _, item := range fresh.Items {
		if item.QuantityReturned < item.Quantity {
			fullyReturned = false
			break
		}
	}
	if fullyReturned {
		fresh.Status = model.SaleStatusReturned
		if saveErr := s.saleRepo.Update(txCtx, fresh); saveErr != nil {
			return nil, fmt.Errorf("failed to update sale status: %w", saveErr)
		}
	}

	ret.TotalAmount = total
	if saveErr := s.saleRepo.UpdateSellReturn(txCtx, ret); saveErr != nil {
		return nil, fmt.Errorf("failed to save return total: %w", saveErr)
	}

	refund := &model.Payment{
		Method:        model.PaymentMethodCash,
		Direction:     model.PaymentDirectionOut,
		Amount:        total,
		ReferenceType: model.StockRefSellReturn,
		ReferenceID:   &ret.ID,
		ReferenceNo:   ret.ReturnNo,
		CreatedBy:     uid,
	}
	if payErr := s.financeRepo.CreatePayment(txCtx, refund); payErr != nil {
		return nil, fmt.Errorf("failed to create refund payment: %w", payErr)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"return_no":    ret.ReturnNo,
		"sale_no":      sale.SaleNo,
		"total_amount": total.StringFixed(4),
	})
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionCreateSellReturn,
		EntityID:   ret.ID.String(),
		EntityName: ret.ReturnNo,
		Details:    string(details),
	}
	if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", auditErr)
	}

	return ret, nil
}

// Exchange performs a sell return and a replacement sale in one
// transaction, deduplicated by the client-supplied idempotency key.
func (s *saleService) Exchange(ctx context.Context, userID string, req ExchangeRequest) (*ExchangeResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale id: %w", err)
	}

	var resp *ExchangeResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		replayed, idemErr := s.idemRepo.Exists(txCtx, req.IdempotencyKey, model.IdemScopeExchange)
		if idemErr != nil {
			return fmt.Errorf("failed to check idempotency key: %w", idemErr)
		}
		if replayed {
			return fmt.Errorf("%w: idempotency key %s already used", ErrConflict, req.IdempotencyKey)
		}
		if claimErr := s.idemRepo.Claim(txCtx, req.IdempotencyKey, model.IdemScopeExchange); claimErr != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}

		sale, findErr := s.saleRepo.FindByIDWithItems(txCtx, saleID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: sale %s", ErrNotFound, req.SaleID)
			}
			return fmt.Errorf("failed to find sale: %w", findErr)
		}

		ret, retErr := s.createSellReturnInTx(txCtx, userID, saleID, CreateSellReturnRequest{
			Reason: "exchange",
			Items:  req.ReturnItems,
		})
		if retErr != nil {
			return retErr
		}

		newSale, saleErr := s.createSaleInTx(txCtx, userID, sale.LocationID, CreateSaleRequest{
			LocationID:    sale.LocationID.String(),
			CustomerName:  sale.CustomerName,
			PaymentMethod: req.PaymentMethod,
			Items:         req.NewItems,
		})
		if saleErr != nil {
			return saleErr
		}

		uid := parseUserID(userID)
		details, _ := json.Marshal(map[string]interface{}{
			"idempotency_key": req.IdempotencyKey,
			"return_no":       ret.ReturnNo,
			"sale_no":         newSale.SaleNo,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateExchange,
			EntityID:   newSale.ID.String(),
			EntityName: newSale.SaleNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		resp = &ExchangeResponse{ReturnNo: ret.ReturnNo, SaleNo: newSale.SaleNo}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return resp, nil
}
