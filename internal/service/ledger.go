package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"poscore/internal/model"
	"poscore/internal/repository"
	ws "poscore/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovement describes one signed change to a (variation, location) pair
type StockMovement struct {
	VariationID   uuid.UUID
	LocationID    uuid.UUID
	Quantity      int // signed delta, never zero
	Type          string
	ReferenceType string
	ReferenceID   *uuid.UUID
	ReferenceNo   string
	Note          string
	AllowNegative bool // adjustment override; recorded in the ledger row note
}

// ReconciliationRow reports one (variation, location) pair whose cached
// balance drifted from the signed sum of its ledger rows.
type ReconciliationRow struct {
	ProductVariationID string `json:"product_variation_id"`
	LocationID         string `json:"location_id"`
	QtyAvailable       int    `json:"qty_available"`
	LedgerSum          int    `json:"ledger_sum"`
	Drift              int    `json:"drift"`
}

// StockLedger is the single writer of inventory state. Every stock change
// in the system goes through Apply: one append-only StockTransaction row
// plus the balance cache update, inside the caller's transaction, under a
// row lock on the balance. Callers must invoke Apply inside RunInTx.
type StockLedger interface {
	Apply(ctx context.Context, mv StockMovement) (*model.StockTransaction, error)
	Reconcile(ctx context.Context) ([]ReconciliationRow, error)
}

type stockLedger struct {
	stockRepo repository.StockRepository
	hub       *ws.Hub
}

func NewStockLedger(stockRepo repository.StockRepository, hub *ws.Hub) StockLedger {
	return &stockLedger{stockRepo: stockRepo, hub: hub}
}

func (l *stockLedger) Apply(ctx context.Context, mv StockMovement) (*model.StockTransaction, error) {
	if mv.Quantity == 0 {
		return nil, errors.New("stock movement quantity must not be zero")
	}

	balance, err := l.stockRepo.FindBalanceForUpdate(ctx, mv.VariationID, mv.LocationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to lock stock balance: %w", err)
		}
		balance = &model.VariationLocationDetail{
			ProductVariationID: mv.VariationID,
			LocationID:         mv.LocationID,
			QtyAvailable:       0,
		}
		if createErr := l.stockRepo.CreateBalance(ctx, balance); createErr != nil {
			return nil, fmt.Errorf("failed to create stock balance: %w", createErr)
		}
	}

	stockAfter := balance.QtyAvailable + mv.Quantity
	if stockAfter < 0 && !mv.AllowNegative {
		return nil, fmt.Errorf("%w: on hand %d, requested %d",
			ErrInsufficientStock, balance.QtyAvailable, -mv.Quantity)
	}

	entry := &model.StockTransaction{
		ProductVariationID: mv.VariationID,
		LocationID:         mv.LocationID,
		Type:               mv.Type,
		Quantity:           mv.Quantity,
		StockAfter:         stockAfter,
		ReferenceType:      mv.ReferenceType,
		ReferenceID:        mv.ReferenceID,
		ReferenceNo:        mv.ReferenceNo,
		Note:               mv.Note,
	}
	if err := l.stockRepo.CreateTransaction(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record stock transaction: %w", err)
	}

	balance.QtyAvailable = stockAfter
	if err := l.stockRepo.UpdateBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to update stock balance: %w", err)
	}

	l.broadcast(mv, stockAfter)

	return entry, nil
}

// Reconcile recomputes the signed ledger sum for every cached balance and
// reports pairs that drifted. A clean system returns an empty slice.
func (l *stockLedger) Reconcile(ctx context.Context) ([]ReconciliationRow, error) {
	balances, err := l.stockRepo.AllBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock balances: %w", err)
	}

	drifted := make([]ReconciliationRow, 0)
	for _, b := range balances {
		sum, sumErr := l.stockRepo.SumDeltas(ctx, b.ProductVariationID, b.LocationID)
		if sumErr != nil {
			return nil, fmt.Errorf("failed to sum ledger deltas: %w", sumErr)
		}
		if sum != b.QtyAvailable {
			drifted = append(drifted, ReconciliationRow{
				ProductVariationID: b.ProductVariationID.String(),
				LocationID:         b.LocationID.String(),
				QtyAvailable:       b.QtyAvailable,
				LedgerSum:          sum,
				Drift:              b.QtyAvailable - sum,
			})
		}
	}

	return drifted, nil
}

// broadcast pushes a stock event to connected dashboards. Best effort —
// a full hub never blocks the transaction.
func (l *stockLedger) broadcast(mv StockMovement, stockAfter int) {
	if l.hub == nil {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"event": "stock.updated",
		"data": map[string]interface{}{
			"product_variation_id": mv.VariationID.String(),
			"location_id":          mv.LocationID.String(),
			"type":                 mv.Type,
			"quantity":             mv.Quantity,
			"stock_after":          stockAfter,
			"reference_no":         mv.ReferenceNo,
		},
	})

	select {
	case l.hub.Broadcast <- payload:
	default:
	}
}
