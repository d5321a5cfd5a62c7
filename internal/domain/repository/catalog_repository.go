package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ProductRepository catálogo de productos (lectura para el motor; CRUD mínimo
// para que el sistema sea operable). Todas las consultas van acotadas por tenant.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Product, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error)
}

// LocationRepository catálogo de bodegas/ubicaciones.
type LocationRepository interface {
	Create(ctx context.Context, l *entity.Location) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error)
	List(ctx context.Context, tenantID string) ([]*entity.Location, error)
}
