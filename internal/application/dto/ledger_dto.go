package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// AppendMovementRequest cuerpo de POST /api/ledger/movements.
// La cantidad es firmada: entradas positivas, salidas negativas.
type AppendMovementRequest struct {
	ProductID      string           `json:"product_id"`
	LocationID     string           `json:"location_id"`
	Type           string           `json:"type"` // IN | OUT | ADJUST
	RefType        string           `json:"ref_type"`
	RefID          string           `json:"ref_id"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"` // obligatorio en IN
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// MovementResponse asiento del kardex en respuestas.
type MovementResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Type       string          `json:"type"`
	RefType    string          `json:"ref_type,omitempty"`
	RefID      string          `json:"ref_id,omitempty"`
	LedgerSeq  int64           `json:"ledger_seq"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MovementToResponse mapea la entidad al DTO de salida.
func MovementToResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		LocationID: m.LocationID,
		Quantity:   m.Quantity,
		Type:       m.Type,
		RefType:    m.RefType,
		RefID:      m.RefID,
		LedgerSeq:  m.LedgerSeq,
		UnitCost:   m.UnitCost,
		TotalCost:  m.TotalCost,
		CreatedAt:  m.CreatedAt,
	}
}

// BalanceResponse proyección de existencias en respuestas.
type BalanceResponse struct {
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LastAppliedSeq int64           `json:"last_applied_seq"`
	UpdatedAt      time.Time       `json:"updated_at"`
	AsOf           *time.Time      `json:"as_of,omitempty"` // presente solo en lecturas históricas
}

// BalanceToResponse mapea la entidad al DTO de salida.
func BalanceToResponse(b *entity.Balance, asOf *time.Time) BalanceResponse {
	return BalanceResponse{
		ProductID:      b.ProductID,
		LocationID:     b.LocationID,
		Quantity:       b.Quantity,
		LastAppliedSeq: b.LastAppliedSeq,
		UpdatedAt:      b.UpdatedAt,
		AsOf:           asOf,
	}
}

// ValuationLayerResponse lote de costo en respuestas.
type ValuationLayerResponse struct {
	LayerSeq     int64           `json:"layer_seq"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LayersToResponse mapea las capas al DTO de salida.
func LayersToResponse(layers []entity.ValuationLayer) []ValuationLayerResponse {
	out := make([]ValuationLayerResponse, len(layers))
	for i, l := range layers {
		out[i] = ValuationLayerResponse{
			LayerSeq:     l.LayerSeq,
			RemainingQty: l.RemainingQty,
			UnitCost:     l.UnitCost,
			CreatedAt:    l.CreatedAt,
		}
	}
	return out
}

// RebuildBalanceRequest cuerpo de POST /api/ledger/balances/rebuild.
type RebuildBalanceRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
}

// MigrateValuationRequest cuerpo de POST /api/admin/valuation/migrate.
type MigrateValuationRequest struct {
	Method string `json:"method"` // FIFO | LIFO | WEIGHTED_AVERAGE
}

// CompareReconciliationRequest cuerpo de POST /api/reconciliations.
type CompareReconciliationRequest struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// ReconciliationResponse registro de conciliación en respuestas.
type ReconciliationResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	LocationID          string          `json:"location_id"`
	ExpectedQty         decimal.Decimal `json:"expected_qty"`
	CountedQty          decimal.Decimal `json:"counted_qty"`
	Variance            decimal.Decimal `json:"variance"`
	Status              string          `json:"status"`
	ResultingMovementID string          `json:"resulting_movement_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	AppliedAt           *time.Time      `json:"applied_at,omitempty"`
}

// ReconciliationToResponse mapea la entidad al DTO de salida.
func ReconciliationToResponse(r *entity.ReconciliationRecord) ReconciliationResponse {
	return ReconciliationResponse{
		ID:                  r.ID,
		ProductID:           r.ProductID,
		LocationID:          r.LocationID,
		ExpectedQty:         r.ExpectedQty,
		CountedQty:          r.CountedQty,
		Variance:            r.Variance,
		Status:              r.Status,
		ResultingMovementID: r.ResultingMovementID,
		CreatedAt:           r.CreatedAt,
		AppliedAt:           r.AppliedAt,
	}
}
