package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// BalanceRepository puerto de la proyección de existencias.
type BalanceRepository interface {
	// Get devuelve el balance materializado; si no existe fila devuelve un
	// balance en cero (no nil).
	Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). ErrBusy si el bloqueo
	// no se obtiene dentro del lock_timeout de la transacción.
	GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error)
	Upsert(ctx context.Context, b *entity.Balance) error
	// ListByTenant lista todos los balances del tenant (migración de valoración).
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Balance, error)
}

// ValuationLayerRepository puerto de los lotes de costo por (tenant, producto).
type ValuationLayerRepository interface {
	// LockProduct serializa a los escritores de balance y capas del producto
	// dentro de la transacción actual. Debe tomarse antes de leer balance o
	// capas: el lock de fila no alcanza cuando las filas aún no existen o
	// cuando Replace las reemplaza completas. ErrBusy si no se obtiene dentro
	// del lock_timeout.
	LockProduct(ctx context.Context, tenantID, productID string) error
	// List devuelve las capas ordenadas por layer_seq ascendente.
	List(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error)
	// ListForUpdate bloquea las capas del producto para consumo/entrada.
	ListForUpdate(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error)
	// Replace reemplaza el conjunto completo de capas del producto dentro de
	// la transacción actual (las capas por producto son pocas).
	Replace(ctx context.Context, tenantID, productID string, layers []entity.ValuationLayer) error
	// ListProductsWithLayers IDs de producto que tienen capas (migración).
	ListProductsWithLayers(ctx context.Context, tenantID string) ([]string, error)
}

// SettingsRepository parámetros de valoración por tenant.
type SettingsRepository interface {
	// Get devuelve nil si el tenant aún no tiene fila de parámetros.
	Get(ctx context.Context, tenantID string) (*entity.TenantSettings, error)
	Upsert(ctx context.Context, s *entity.TenantSettings) error
}
