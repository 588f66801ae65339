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

type PurchaseItemRequest struct {
	ProductVariationID string `json:"product_variation_id" binding:"required"`
	Quantity           int    `json:"quantity" binding:"required,gt=0"`
	UnitCost           string `json:"unit_cost" binding:"required"`
}

type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required"`
	LocationID string                `json:"location_id" binding:"required"`
	Note       string                `json:"note"`
	Items      []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ReceiptItemRequest struct {
	PurchaseItemID string   `json:"purchase_item_id" binding:"required"`
	Quantity       int      `json:"quantity" binding:"required,gt=0"`
	SerialNumbers  []string `json:"serial_numbers"`
}

type ReceiveGoodsRequest struct {
	Items []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
	Note  string               `json:"note"`
}

type GoodsReceiptResponse struct {
	ID             string `json:"id"`
	ReceiptNo      string `json:"receipt_no"`
	PurchaseID     string `json:"purchase_id"`
	PurchaseStatus string `json:"purchase_status"`
	TotalValue     string `json:"total_value"`
}

type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*model.Purchase, error)
	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)
	ListPurchases(ctx context.Context, status string, page, limit int) ([]model.Purchase, int64, error)
	ReceiveGoods(ctx context.Context, userID string, purchaseID string, req ReceiveGoodsRequest) (*GoodsReceiptResponse, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	supplierRepo repository.SupplierRepository
	locationRepo repository.LocationRepository
	productRepo  repository.ProductRepository
	serialRepo   repository.SerialRepository
	financeRepo  repository.FinanceRepository
	auditRepo    repository.AuditRepository
	ledger       StockLedger
	txManager    repository.TransactionManager
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	supplierRepo repository.SupplierRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	serialRepo repository.SerialRepository,
	financeRepo repository.FinanceRepository,
	auditRepo repository.AuditRepository,
	ledger StockLedger,
	txManager repository.TransactionManager,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		supplierRepo: supplierRepo,
		locationRepo: locationRepo,
		productRepo:  productRepo,
		serialRepo:   serialRepo,
		financeRepo:  financeRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
	}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*model.Purchase, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id: %w", err)
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location_id: %w", err)
	}

	if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, req.SupplierID)
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	if _, err := s.locationRepo.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: location %s", ErrNotFound, req.LocationID)
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}

	var purchase *model.Purchase
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prefix := dayPrefix("PO")
		seq, seqErr := s.purchaseRepo.NextPurchaseSeq(txCtx, prefix)
		if seqErr != nil {
			return fmt.Errorf("failed to generate purchase number: %w", seqErr)
		}

		uid := parseUserID(userID)
		purchase = &model.Purchase{
			PurchaseNo: formatDocNo(prefix, seq),
			SupplierID: supplierID,
			LocationID: locationID,
			Status:     model.PurchaseStatusOrdered,
			Note:       req.Note,
			CreatedBy:  uid,
		}
		if createErr := s.purchaseRepo.Create(txCtx, purchase); createErr != nil {
			return fmt.Errorf("failed to create purchase: %w", createErr)
		}

		for _, itemReq := range req.Items {
			variationID, parseErr := uuid.Parse(itemReq.ProductVariationID)
			if parseErr != nil {
				return fmt.Errorf("invalid product_variation_id: %w", parseErr)
			}
			if _, findErr := s.productRepo.FindVariationByID(txCtx, variationID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product variation %s", ErrNotFound, itemReq.ProductVariationID)
				}
				return fmt.Errorf("failed to find variation: %w", findErr)
			}

			unitCost, costErr := decimal.NewFromString(itemReq.UnitCost)
			if costErr != nil || unitCost.IsNegative() {
				return fmt.Errorf("invalid unit_cost %q for variation %s", itemReq.UnitCost, itemReq.ProductVariationID)
			}

			item := &model.PurchaseItem{
				PurchaseID:         purchase.ID,
				ProductVariationID: variationID,
				Quantity:           itemReq.Quantity,
				UnitCost:           unitCost,
			}
			if itemErr := s.purchaseRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create purchase item: %w", itemErr)
			}
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreatePurchase,
			EntityID:   purchase.ID.String(),
			EntityName: purchase.PurchaseNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return s.purchaseRepo.FindByIDWithItems(ctx, purchase.ID)
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase id: %w", err)
	}

	purchase, err := s.purchaseRepo.FindByIDWithItems(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}
	return purchase, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, status string, page, limit int) ([]model.Purchase, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.purchaseRepo.List(ctx, status, page, limit)
}

// ReceiveGoods applies a goods receipt (GRN) against a purchase order.
// The whole receipt commits or none of it does: ledger rows, balances,
// serial creation, cumulative received quantities, purchase status, and
// the supplier's payable increase all ride the same transaction.
func (s *purchaseService) ReceiveGoods(ctx context.Context, userID string, purchaseID string, req ReceiveGoodsRequest) (*GoodsReceiptResponse, error) {
	pid, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase id: %w", err)
	}

	var resp *GoodsReceiptResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, findErr := s.purchaseRepo.FindByIDForUpdate(txCtx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase %s", ErrNotFound, purchaseID)
			}
			return fmt.Errorf("failed to lock purchase: %w", findErr)
		}

		if purchase.Status != model.PurchaseStatusOrdered && purchase.Status != model.PurchaseStatusPartiallyReceived {
			return fmt.Errorf("%w: purchase %s is %s", ErrConflict, purchase.PurchaseNo, purchase.Status)
		}

		prefix := dayPrefix("GRN")
		seq, seqErr := s.purchaseRepo.NextReceiptSeq(txCtx, prefix)
		if seqErr != nil {
			return fmt.Errorf("failed to generate receipt number: %w", seqErr)
		}

		uid := parseUserID(userID)
		receipt := &model.GoodsReceipt{
			ReceiptNo:  formatDocNo(prefix, seq),
			PurchaseID: purchase.ID,
			LocationID: purchase.LocationID,
			Note:       req.Note,
			ReceivedBy: uid,
		}
		if createErr := s.purchaseRepo.CreateReceipt(txCtx, receipt); createErr != nil {
			return fmt.Errorf("failed to create goods receipt: %w", createErr)
		}

		// Serials must be unique within this receipt as well as globally
		seenSerials := make(map[string]bool)

		totalValue := decimal.Zero
		for _, itemReq := range req.Items {
			itemID, parseErr := uuid.Parse(itemReq.PurchaseItemID)
			if parseErr != nil {
				return fmt.Errorf("invalid purchase_item_id: %w", parseErr)
			}

			item, itemErr := s.purchaseRepo.FindItemForUpdate(txCtx, itemID)
			if itemErr != nil {
				if errors.Is(itemErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: purchase item %s", ErrNotFound, itemReq.PurchaseItemID)
				}
				return fmt.Errorf("failed to lock purchase item: %w", itemErr)
			}
			if item.PurchaseID != purchase.ID {
				return fmt.Errorf("purchase item %s does not belong to purchase %s", itemReq.PurchaseItemID, purchase.PurchaseNo)
			}

			if item.QuantityReceived+itemReq.Quantity > item.Quantity {
				return fmt.Errorf("over-receipt on purchase item %s: ordered %d, already received %d, receiving %d",
					itemReq.PurchaseItemID, item.Quantity, item.QuantityReceived, itemReq.Quantity)
			}

			variation, varErr := s.productRepo.FindVariationByID(txCtx, item.ProductVariationID)
			if varErr != nil {
				return fmt.Errorf("failed to find variation: %w", varErr)
			}

			if variation.SerialTracked {
				if len(itemReq.SerialNumbers) != itemReq.Quantity {
					return fmt.Errorf("serial count mismatch for %s: expected %d serial numbers, got %d",
						variation.SKU, itemReq.Quantity, len(itemReq.SerialNumbers))
				}
			} else if len(itemReq.SerialNumbers) > 0 {
				return fmt.Errorf("variation %s is not serial tracked", variation.SKU)
			}

			for _, serialNo := range itemReq.SerialNumbers {
				if serialNo == "" {
					return errors.New("serial number must not be empty")
				}
				if seenSerials[serialNo] {
					return fmt.Errorf("%w: %s appears twice in this receipt", ErrDuplicateSerial, serialNo)
				}
				seenSerials[serialNo] = true

				exists, existsErr := s.serialRepo.ExistsSerialNo(txCtx, serialNo)
				if existsErr != nil {
					return fmt.Errorf("failed to check serial number: %w", existsErr)
				}
				if exists {
					return fmt.Errorf("%w: %s", ErrDuplicateSerial, serialNo)
				}
			}

			receiptItem := &model.GoodsReceiptItem{
				GoodsReceiptID:     receipt.ID,
				PurchaseItemID:     item.ID,
				ProductVariationID: item.ProductVariationID,
				Quantity:           itemReq.Quantity,
				UnitCost:           item.UnitCost,
			}
			if riErr := s.purchaseRepo.CreateReceiptItem(txCtx, receiptItem); riErr != nil {
				return fmt.Errorf("failed to create receipt item: %w", riErr)
			}

			if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
				VariationID:   item.ProductVariationID,
				LocationID:    purchase.LocationID,
				Quantity:      itemReq.Quantity,
				Type:          model.StockTxPurchase,
				ReferenceType: model.StockRefGoodsReceipt,
				ReferenceID:   &receipt.ID,
				ReferenceNo:   receipt.ReceiptNo,
			}); applyErr != nil {
				return applyErr
			}

			locID := purchase.LocationID
			for _, serialNo := range itemReq.SerialNumbers {
				serial := &model.ProductSerialNumber{
					ProductVariationID: item.ProductVariationID,
					SerialNo:           serialNo,
					Status:             model.SerialStatusInStock,
					CurrentLocationID:  &locID,
					ReceivedReceiptID:  &receipt.ID,
				}
				if serialErr := s.serialRepo.Create(txCtx, serial); serialErr != nil {
					return fmt.Errorf("failed to create serial %s: %w", serialNo, serialErr)
				}
			}

			if recvErr := s.purchaseRepo.UpdateItemReceived(txCtx, item.ID, item.QuantityReceived+itemReq.Quantity); recvErr != nil {
				return fmt.Errorf("failed to update received quantity: %w", recvErr)
			}

			totalValue = totalValue.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
		}

		receipt.TotalValue = totalValue
		if saveErr := s.purchaseRepo.UpdateReceiptTotal(txCtx, receipt); saveErr != nil {
			return fmt.Errorf("failed to save receipt total: %w", saveErr)
		}

		// Recompute purchase status from fresh item state
		fresh, freshErr := s.purchaseRepo.FindByIDWithItems(txCtx, purchase.ID)
		if freshErr != nil {
			return fmt.Errorf("failed to reload purchase: %w", freshErr)
		}
		status := model.PurchaseStatusReceived
		for _, item := range fresh.Items {
			if item.QuantityReceived < item.Quantity {
				status = model.PurchaseStatusPartiallyReceived
				break
			}
		}
		if statusErr := s.purchaseRepo.UpdateStatus(txCtx, purchase.ID, status); statusErr != nil {
			return fmt.Errorf("failed to update purchase status: %w", statusErr)
		}

		// Receiving goods increases what we owe the supplier
		if apErr := s.increasePayable(txCtx, purchase.SupplierID, totalValue); apErr != nil {
			return apErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"receipt_no":  receipt.ReceiptNo,
			"purchase_no": purchase.PurchaseNo,
			"total_value": totalValue.StringFixed(4),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionReceiveGoods,
			EntityID:   receipt.ID.String(),
			EntityName: receipt.ReceiptNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		resp = &GoodsReceiptResponse{
			ID:             receipt.ID.String(),
			ReceiptNo:      receipt.ReceiptNo,
			PurchaseID:     purchase.ID.String(),
			PurchaseStatus: status,
			TotalValue:     totalValue.StringFixed(4),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *purchaseService) increasePayable(ctx context.Context, supplierID uuid.UUID, amount decimal.Decimal) error {
	ap, err := s.financeRepo.FindPayableForUpdate(ctx, supplierID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to lock accounts payable: %w", err)
		}
		ap = &model.AccountsPayable{SupplierID: supplierID, Balance: decimal.Zero}
		if createErr := s.financeRepo.CreatePayable(ctx, ap); createErr != nil {
			return fmt.Errorf("failed to create accounts payable: %w", createErr)
		}
	}

	ap.Balance = ap.Balance.Add(amount)
	if err := s.financeRepo.UpdatePayable(ctx, ap); err != nil {
		return fmt.Errorf("failed to update accounts payable: %w", err)
	}
	return nil
}

// parseUserID converts the JWT subject into a nullable uuid for audit rows
func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
