package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ReconciliationRepository puerto de registros de conciliación física.
type ReconciliationRepository interface {
	Create(ctx context.Context, r *entity.ReconciliationRecord) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.ReconciliationRecord, error)
	// MarkApplied registra el movimiento compensatorio resultante.
	MarkApplied(ctx context.Context, tenantID, id, movementID string) error
}
