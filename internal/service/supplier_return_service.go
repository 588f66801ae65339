package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type SupplierReturnItemRequest struct {
	ProductVariationID string   `json:"product_variation_id" binding:"required"`
	Quantity           int      `json:"quantity" binding:"required,gt=0"`
	UnitCost           string   `json:"unit_cost" binding:"required"`
	SerialNumberIDs    []string `json:"serial_number_ids"`
}

type CreateSupplierReturnRequest struct {
	SupplierID string                      `json:"supplier_id" binding:"required"`
	LocationID string                      `json:"location_id" binding:"required"`
	Reason     string                      `json:"reason"`
	Items      []SupplierReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SupplierReturnService interface {
	CreateReturn(ctx context.Context, userID string, req CreateSupplierReturnRequest) (*model.SupplierReturn, error)
	GetReturn(ctx context.Context, id string) (*model.SupplierReturn, error)
	ListReturns(ctx context.Context, status string, page, limit int) ([]model.SupplierReturn, int64, error)
	ApproveReturn(ctx context.Context, userID string, id string) (*model.SupplierReturn, error)
	RejectReturn(ctx context.Context, userID string, id string, reason string) (*model.SupplierReturn, error)
}

type supplierReturnService struct {
	returnRepo   repository.SupplierReturnRepository
	supplierRepo repository.SupplierRepository
	locationRepo repository.LocationRepository
	productRepo  repository.ProductRepository
	serialRepo   repository.SerialRepository
	financeRepo  repository.FinanceRepository
	auditRepo    repository.AuditRepository
	ledger       StockLedger
	txManager    repository.TransactionManager
}

func NewSupplierReturnService(
	returnRepo repository.SupplierReturnRepository,
	supplierRepo repository.SupplierRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	serialRepo repository.SerialRepository,
	financeRepo repository.FinanceRepository,
	auditRepo repository.AuditRepository,
	ledger StockLedger,
	txManager repository.TransactionManager,
) SupplierReturnService {
	return &supplierReturnService{
		returnRepo:   returnRepo,
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

func (s *supplierReturnService) CreateReturn(ctx context.Context, userID string, req CreateSupplierReturnRequest) (*model.SupplierReturn, error) {
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

	var ret *model.SupplierReturn
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prefix := dayPrefix("SRT")
		seq, seqErr := s.returnRepo.NextReturnSeq(txCtx, prefix)
		if seqErr != nil {
			return fmt.Errorf("failed to generate return number: %w", seqErr)
		}

		uid := parseUserID(userID)
		ret = &model.SupplierReturn{
			ReturnNo:   formatDocNo(prefix, seq),
			SupplierID: supplierID,
			LocationID: locationID,
			Status:     model.SupplierReturnPending,
			Reason:     req.Reason,
			CreatedBy:  uid,
		}
		if createErr := s.returnRepo.Create(txCtx, ret); createErr != nil {
			return fmt.Errorf("failed to create supplier return: %w", createErr)
		}

		total := decimal.Zero
		for _, itemReq := range req.Items {
			variationID, parseErr := uuid.Parse(itemReq.ProductVariationID)
			if parseErr != nil {
				return fmt.Errorf("invalid product_variation_id: %w", parseErr)
			}

			variation, varErr := s.productRepo.FindVariationByID(txCtx, variationID)
			if varErr != nil {
				if errors.Is(varErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product variation %s", ErrNotFound, itemReq.ProductVariationID)
				}
				return fmt.Errorf("failed to find variation: %w", varErr)
			}

			unitCost, costErr := decimal.NewFromString(itemReq.UnitCost)
			if costErr != nil || unitCost.IsNegative() {
				return fmt.Errorf("invalid unit_cost %q for variation %s", itemReq.UnitCost, variation.SKU)
			}

			serialIDs, serErr := s.validateReturnSerials(txCtx, variation, locationID, itemReq)
			if serErr != nil {
				return serErr
			}

			serialJSON, _ := json.Marshal(serialIDs)
			item := &model.SupplierReturnItem{
				SupplierReturnID:   ret.ID,
				ProductVariationID: variationID,
				Quantity:           itemReq.Quantity,
				UnitCost:           unitCost,
				SerialNumberIDs:    string(serialJSON),
			}
			if itemErr := s.returnRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create return item: %w", itemErr)
			}

			total = total.Add(unitCost.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
		}

		ret.TotalAmount = total
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to save return total: %w", saveErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateSupplierReturn,
			EntityID:   ret.ID.String(),
			EntityName: ret.ReturnNo,
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

	return s.returnRepo.FindByIDWithItems(ctx, ret.ID)
}

// validateReturnSerials checks that serial-tracked lines name exactly
// Quantity serialized units, all in stock at the return location and
// belonging to the right variation. Returns the parsed serial ids.
func (s *supplierReturnService) validateReturnSerials(ctx context.Context, variation *model.ProductVariation, locationID uuid.UUID, itemReq SupplierReturnItemRequest) ([]string, error) {
	if !variation.SerialTracked {
		if len(itemReq.SerialNumberIDs) > 0 {
			return nil, fmt.Errorf("variation %s is not serial tracked", variation.SKU)
		}
		return nil, nil
	}

	if len(itemReq.SerialNumberIDs) != itemReq.Quantity {
		return nil, fmt.Errorf("serial count mismatch for %s: expected %d serial ids, got %d",
			variation.SKU, itemReq.Quantity, len(itemReq.SerialNumberIDs))
	}

	seen := make(map[string]bool)
	for _, rawID := range itemReq.SerialNumberIDs {
		if seen[rawID] {
			return nil, fmt.Errorf("%w: serial id %s listed twice", ErrDuplicateSerial, rawID)
		}
		seen[rawID] = true

		serialID, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid serial id %q: %w", rawID, parseErr)
		}

		serial, findErr := s.serialRepo.FindByID(ctx, serialID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: serial %s", ErrNotFound, rawID)
			}
			return nil, fmt.Errorf("failed to find serial: %w", findErr)
		}
		if serial.ProductVariationID != variation.ID {
			return nil, fmt.Errorf("serial %s does not belong to variation %s", serial.SerialNo, variation.SKU)
		}
		if serial.Status != model.SerialStatusInStock || serial.CurrentLocationID == nil || *serial.CurrentLocationID != locationID {
			return nil, fmt.Errorf("serial %s is not in stock at the return location", serial.SerialNo)
		}
	}

	return itemReq.SerialNumberIDs, nil
}

func (s *supplierReturnService) GetReturn(ctx context.Context, id string) (*model.SupplierReturn, error) {
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid return id: %w", err)
	}

	ret, err := s.returnRepo.FindByIDWithItems(ctx, returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier return %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find supplier return: %w", err)
	}
	return ret, nil
}

func (s *supplierReturnService) ListReturns(ctx context.Context, status string, page, limit int) ([]model.SupplierReturn, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.returnRepo.List(ctx, status, page, limit)
}

// ApproveReturn executes the return's four effects atomically:
// compensating ledger rows + balance decrements, serial custody flips,
// the supplier's payable decrease, and exactly one supplier_return_credit
// payment for the return total. Any failure rolls all four back.
func (s *supplierReturnService) ApproveReturn(ctx context.Context, userID string, id string) (*model.SupplierReturn, error) {
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid return id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, findErr := s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: supplier return %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock supplier return: %w", findErr)
		}

		if ret.Status != model.SupplierReturnPending {
			return fmt.Errorf("%w: supplier return %s is already %s", ErrConflict, ret.ReturnNo, ret.Status)
		}

		uid := parseUserID(userID)

		// (a) compensating ledger rows, one per item
		for _, item := range ret.Items {
			if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
				VariationID:   item.ProductVariationID,
				LocationID:    ret.LocationID,
				Quantity:      -item.Quantity,
				Type:          model.StockTxSupplierReturn,
				ReferenceType: model.StockRefSupplierReturn,
				ReferenceID:   &ret.ID,
				ReferenceNo:   ret.ReturnNo,
			}); applyErr != nil {
				return applyErr
			}

			// (b) serialized units leave business custody
			if flipErr := s.flipSerials(txCtx, ret, item); flipErr != nil {
				return flipErr
			}
		}

		// (c) the supplier is owed less
		ap, apErr := s.financeRepo.FindPayableForUpdate(txCtx, ret.SupplierID)
		if apErr != nil {
			if !errors.Is(apErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to lock accounts payable: %w", apErr)
			}
			ap = &model.AccountsPayable{SupplierID: ret.SupplierID, Balance: decimal.Zero}
			if createErr := s.financeRepo.CreatePayable(txCtx, ap); createErr != nil {
				return fmt.Errorf("failed to create accounts payable: %w", createErr)
			}
		}
		ap.Balance = ap.Balance.Sub(ret.TotalAmount)
		if updErr := s.financeRepo.UpdatePayable(txCtx, ap); updErr != nil {
			return fmt.Errorf("failed to update accounts payable: %w", updErr)
		}

		// (d) the payment record explaining the AP decrease
		payment := &model.Payment{
			SupplierID:    &ret.SupplierID,
			Method:        model.PaymentMethodSupplierReturnCredit,
			Direction:     model.PaymentDirectionIn,
			Amount:        ret.TotalAmount,
			ReferenceType: model.StockRefSupplierReturn,
			ReferenceID:   &ret.ID,
			ReferenceNo:   ret.ReturnNo,
			CreatedBy:     uid,
		}
		if payErr := s.financeRepo.CreatePayment(txCtx, payment); payErr != nil {
			return fmt.Errorf("failed to create payment: %w", payErr)
		}

		now := time.Now()
		ret.Status = model.SupplierReturnApproved
		ret.ApprovedBy = uid
		ret.ApprovedAt = &now
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update supplier return: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"return_no":    ret.ReturnNo,
			"total_amount": ret.TotalAmount.StringFixed(4),
			"supplier_id":  ret.SupplierID.String(),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionApproveReturn,
			EntityID:   ret.ID.String(),
			EntityName: ret.ReturnNo,
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

	return s.returnRepo.FindByIDWithItems(ctx, returnID)
}

// flipSerials moves each returned serialized unit to supplier_return and
// clears its location. Units must still be in stock at the return
// location — the state may have changed between creation and approval.
func (s *supplierReturnService) flipSerials(ctx context.Context, ret *model.SupplierReturn, item model.SupplierReturnItem) error {
	if item.SerialNumberIDs == "" {
		return nil
	}

	var rawIDs []string
	if err := json.Unmarshal([]byte(item.SerialNumberIDs), &rawIDs); err != nil {
		return fmt.Errorf("failed to parse serial ids: %w", err)
	}

	for _, rawID := range rawIDs {
		serialID, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return fmt.Errorf("invalid serial id %q: %w", rawID, parseErr)
		}

		serial, findErr := s.serialRepo.FindByIDForUpdate(ctx, serialID)
		if findErr != nil {
			return fmt.Errorf("failed to lock serial %s: %w", rawID, findErr)
		}
		if serial.Status != model.SerialStatusInStock || serial.CurrentLocationID == nil || *serial.CurrentLocationID != ret.LocationID {
			return fmt.Errorf("serial %s is no longer in stock at the return location", serial.SerialNo)
		}

		serial.Status = model.SerialStatusSupplierReturn
		serial.CurrentLocationID = nil
		if updErr := s.serialRepo.Update(ctx, serial); updErr != nil {
			return fmt.Errorf("failed to update serial %s: %w", serial.SerialNo, updErr)
		}
	}

	return nil
}

func (s *supplierReturnService) RejectReturn(ctx context.Context, userID string, id string, reason string) (*model.SupplierReturn, error) {
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid return id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, findErr := s.returnRepo.FindByIDForUpdate(txCtx, returnID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: supplier return %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock supplier return: %w", findErr)
		}

		if ret.Status != model.SupplierReturnPending {
			return fmt.Errorf("%w: supplier return %s is already %s", ErrConflict, ret.ReturnNo, ret.Status)
		}

		uid := parseUserID(userID)
		now := time.Now()
		ret.Status = model.SupplierReturnRejected
		ret.ApprovedBy = uid
		ret.ApprovedAt = &now
		ret.RejectionReason = reason
		if saveErr := s.returnRepo.Update(txCtx, ret); saveErr != nil {
			return fmt.Errorf("failed to update supplier return: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"return_no": ret.ReturnNo,
			"reason":    reason,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionRejectReturn,
			EntityID:   ret.ID.String(),
			EntityName: ret.ReturnNo,
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

	return s.returnRepo.FindByIDWithItems(ctx, returnID)
}
