package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// MovementFilter filtros de lectura del kardex. El resultado siempre viene
// ordenado por ledger_seq ascendente (orden de asignación).
type MovementFilter struct {
	ProductID  string
	LocationID string // vacío = todas las ubicaciones
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// MovementRepository puerto de persistencia del kardex (append-only).
// Ninguna implementación expone update ni delete de movimientos.
type MovementRepository interface {
	// Create persiste el movimiento y asigna LedgerSeq en orden de inserción.
	Create(ctx context.Context, m *entity.Movement) error
	// GetByIdempotencyKey devuelve el movimiento previamente registrado con la
	// misma clave para el tenant, o nil si no existe (retry seguro).
	GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Movement, error)
	// List lee movimientos del tenant según filtro, ordenados por ledger_seq.
	List(ctx context.Context, tenantID string, f MovementFilter) ([]*entity.Movement, error)
	// ListForReplay devuelve todos los movimientos de un (producto, ubicación)
	// con created_at <= asOf (nil = toda la historia), ordenados por ledger_seq.
	ListForReplay(ctx context.Context, tenantID, productID, locationID string, asOf *time.Time) ([]*entity.Movement, error)
	// ListByProduct devuelve toda la historia del producto en todas las
	// ubicaciones, ordenada por ledger_seq (reconstrucción de capas).
	ListByProduct(ctx context.Context, tenantID, productID string) ([]*entity.Movement, error)
}
