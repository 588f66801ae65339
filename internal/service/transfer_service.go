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
	"gorm.io/gorm"
)

// DTOs

type TransferItemRequest struct {
	ProductVariationID string   `json:"product_variation_id" binding:"required"`
	Quantity           int      `json:"quantity" binding:"required,gt=0"`
	SerialNumberIDs    []string `json:"serial_number_ids"`
}

type CreateTransferRequest struct {
	FromLocationID string                `json:"from_location_id" binding:"required"`
	ToLocationID   string                `json:"to_location_id" binding:"required"`
	Note           string                `json:"note"`
	Items          []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateTransferRequest struct {
	Action string `json:"action" binding:"required,oneof=receive cancel"`
}

type TransferService interface {
	CreateTransfer(ctx context.Context, userID string, req CreateTransferRequest) (*model.StockTransfer, error)
	GetTransfer(ctx context.Context, id string) (*model.StockTransfer, error)
	ListTransfers(ctx context.Context, status string, page, limit int) ([]model.StockTransfer, int64, error)
	ReceiveTransfer(ctx context.Context, userID string, id string) (*model.StockTransfer, error)
	CancelTransfer(ctx context.Context, userID string, id string) (*model.StockTransfer, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	locationRepo repository.LocationRepository
	productRepo  repository.ProductRepository
	serialRepo   repository.SerialRepository
	auditRepo    repository.AuditRepository
	ledger       StockLedger
	txManager    repository.TransactionManager
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	locationRepo repository.LocationRepository,
	productRepo repository.ProductRepository,
	serialRepo repository.SerialRepository,
	auditRepo repository.AuditRepository,
	ledger StockLedger,
	txManager repository.TransactionManager,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		locationRepo: locationRepo,
		productRepo:  productRepo,
		serialRepo:   serialRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
	}
}

// CreateTransfer dispatches stock: transfer_out rows leave the source
// location immediately and the document rides in_transit until received.
func (s *transferService) CreateTransfer(ctx context.Context, userID string, req CreateTransferRequest) (*model.StockTransfer, error) {
	fromID, err := uuid.Parse(req.FromLocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid from_location_id: %w", err)
	}
	toID, err := uuid.Parse(req.ToLocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid to_location_id: %w", err)
	}
	if fromID == toID {
		return nil, errors.New("transfer source and destination must differ")
	}

	for _, locID := range []uuid.UUID{fromID, toID} {
		if _, findErr := s.locationRepo.FindByID(ctx, locID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: location %s", ErrNotFound, locID)
			}
			return nil, fmt.Errorf("failed to find location: %w", findErr)
		}
	}

	var transfer *model.StockTransfer
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prefix := dayPrefix("TRF")
		seq, seqErr := s.transferRepo.NextTransferSeq(txCtx, prefix)
		if seqErr != nil {
			return fmt.Errorf("failed to generate transfer number: %w", seqErr)
		}

		uid := parseUserID(userID)
		transfer = &model.StockTransfer{
			TransferNo:     formatDocNo(prefix, seq),
			FromLocationID: fromID,
			ToLocationID:   toID,
			Status:         model.TransferInTransit,
			Note:           req.Note,
			CreatedBy:      uid,
		}
		if createErr := s.transferRepo.Create(txCtx, transfer); createErr != nil {
			return fmt.Errorf("failed to create transfer: %w", createErr)
		}

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

			if variation.SerialTracked && len(itemReq.SerialNumberIDs) != itemReq.Quantity {
				return fmt.Errorf("serial count mismatch for %s: expected %d serial ids, got %d",
					variation.SKU, itemReq.Quantity, len(itemReq.SerialNumberIDs))
			}
			if !variation.SerialTracked && len(itemReq.SerialNumberIDs) > 0 {
				return fmt.Errorf("variation %s is not serial tracked", variation.SKU)
			}

			if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
				VariationID:   variationID,
				LocationID:    fromID,
				Quantity:      -itemReq.Quantity,
				Type:          model.StockTxTransferOut,
				ReferenceType: model.StockRefTransfer,
				ReferenceID:   &transfer.ID,
				ReferenceNo:   transfer.TransferNo,
			}); applyErr != nil {
				return applyErr
			}

			// Serialized units go into transit custody
			for _, rawID := range itemReq.SerialNumberIDs {
				serialID, sErr := uuid.Parse(rawID)
				if sErr != nil {
					return fmt.Errorf("invalid serial id %q: %w", rawID, sErr)
				}
				serial, lockErr := s.serialRepo.FindByIDForUpdate(txCtx, serialID)
				if lockErr != nil {
					if errors.Is(lockErr, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: serial %s", ErrNotFound, rawID)
					}
					return fmt.Errorf("failed to lock serial: %w", lockErr)
				}
				if serial.ProductVariationID != variationID {
					return fmt.Errorf("serial %s does not belong to variation %s", serial.SerialNo, variation.SKU)
				}
				if serial.Status != model.SerialStatusInStock || serial.CurrentLocationID == nil || *serial.CurrentLocationID != fromID {
					return fmt.Errorf("serial %s is not in stock at the source location", serial.SerialNo)
				}
				serial.Status = model.SerialStatusTransferred
				serial.CurrentLocationID = nil
				if updErr := s.serialRepo.Update(txCtx, serial); updErr != nil {
					return fmt.Errorf("failed to update serial %s: %w", serial.SerialNo, updErr)
				}
			}

			serialJSON, _ := json.Marshal(itemReq.SerialNumberIDs)
			item := &model.StockTransferItem{
				StockTransferID:    transfer.ID,
				ProductVariationID: variationID,
				Quantity:           itemReq.Quantity,
				SerialNumberIDs:    string(serialJSON),
			}
			if itemErr := s.transferRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create transfer item: %w", itemErr)
			}
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateTransfer,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.TransferNo,
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

	return s.transferRepo.FindByIDWithItems(ctx, transfer.ID)
}

func (s *transferService) GetTransfer(ctx context.Context, id string) (*model.StockTransfer, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer id: %w", err)
	}

	transfer, err := s.transferRepo.FindByIDWithItems(ctx, transferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transfer %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find transfer: %w", err)
	}
	return transfer, nil
}

func (s *transferService) ListTransfers(ctx context.Context, status string, page, limit int) ([]model.StockTransfer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.transferRepo.List(ctx, status, page, limit)
}

// ReceiveTransfer lands an in-transit transfer at the destination:
// transfer_in rows arrive and serialized units regain custody there.
func (s *transferService) ReceiveTransfer(ctx context.Context, userID string, id string) (*model.StockTransfer, error) {
	return s.settleTransfer(ctx, userID, id, false)
}

// CancelTransfer aborts an in-transit transfer, compensating the stock
// back into the source location.
func (s *transferService) CancelTransfer(ctx context.Context, userID string, id string) (*model.StockTransfer, error) {
	return s.settleTransfer(ctx, userID, id, true)
}

func (s *transferService) settleTransfer(ctx context.Context, userID string, id string, cancel bool) (*model.StockTransfer, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		transfer, findErr := s.transferRepo.FindByIDForUpdate(txCtx, transferID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: transfer %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to lock transfer: %w", findErr)
		}

		if transfer.Status != model.TransferInTransit {
			return fmt.Errorf("%w: transfer %s is already %s", ErrConflict, transfer.TransferNo, transfer.Status)
		}

		// Receive lands at the destination; cancel compensates back at the source
		landingLocation := transfer.ToLocationID
		if cancel {
			landingLocation = transfer.FromLocationID
		}

		uid := parseUserID(userID)
		for _, item := range transfer.Items {
			if _, applyErr := s.ledger.Apply(txCtx, StockMovement{
				VariationID:   item.ProductVariationID,
				LocationID:    landingLocation,
				Quantity:      item.Quantity,
				Type:          model.StockTxTransferIn,
				ReferenceType: model.StockRefTransfer,
				ReferenceID:   &transfer.ID,
				ReferenceNo:   transfer.TransferNo,
			}); applyErr != nil {
				return applyErr
			}

			if item.SerialNumberIDs == "" {
				continue
			}
			var rawIDs []string
			if jsonErr := json.Unmarshal([]byte(item.SerialNumberIDs), &rawIDs); jsonErr != nil {
				return fmt.Errorf("failed to parse serial ids: %w", jsonErr)
			}
			for _, rawID := range rawIDs {
				serialID, sErr := uuid.Parse(rawID)
				if sErr != nil {
					return fmt.Errorf("invalid serial id %q: %w", rawID, sErr)
				}
				serial, lockErr := s.serialRepo.FindByIDForUpdate(txCtx, serialID)
				if lockErr != nil {
					return fmt.Errorf("failed to lock serial %s: %w", rawID, lockErr)
				}
				if serial.Status != model.SerialStatusTransferred {
					return fmt.Errorf("serial %s is not in transit", serial.SerialNo)
				}
				loc := landingLocation
				serial.Status = model.SerialStatusInStock
				serial.CurrentLocationID = &loc
				if updErr := s.serialRepo.Update(txCtx, serial); updErr != nil {
					return fmt.Errorf("failed to update serial %s: %w", serial.SerialNo, updErr)
				}
			}
		}

		now := time.Now()
		action := model.ActionReceiveTransfer
		if cancel {
			transfer.Status = model.TransferCancelled
			action = model.ActionCancelTransfer
		} else {
			transfer.Status = model.TransferReceived
			transfer.ReceivedBy = uid
			transfer.ReceivedAt = &now
		}
		if saveErr := s.transferRepo.Update(txCtx, transfer); saveErr != nil {
			return fmt.Errorf("failed to update transfer: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"transfer_no": transfer.TransferNo,
			"status":      transfer.Status,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     action,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.TransferNo,
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

	return s.transferRepo.FindByIDWithItems(ctx, transferID)
}
