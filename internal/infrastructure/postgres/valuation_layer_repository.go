package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.ValuationLayerRepository = (*ValuationLayerRepo)(nil)

// ValuationLayerRepo lotes de costo sobre PostgreSQL (usable con pool o tx).
type ValuationLayerRepo struct {
	q Querier
}

// NewValuationLayerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewValuationLayerRepository(q Querier) *ValuationLayerRepo {
	return &ValuationLayerRepo{q: q}
}

// LockProduct toma un advisory lock transaccional con llave (tenant,
// producto). Un SELECT FOR UPDATE sobre balances o capas no serializa aquí:
// en el primer movimiento las filas aún no existen y Replace hace
// delete+insert, así que dos transacciones podrían pisarse la proyección.
// El advisory lock existe siempre y se libera con el commit/rollback; la
// espera respeta el lock_timeout de la transacción (ErrBusy).
func (r *ValuationLayerRepo) LockProduct(ctx context.Context, tenantID, productID string) error {
	if _, err := r.q.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`,
		tenantID, productID,
	); err != nil {
		return fmt.Errorf("lock product: %w", mapError(err))
	}
	return nil
}

// List devuelve las capas del producto ordenadas por layer_seq.
func (r *ValuationLayerRepo) List(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	return r.list(ctx, tenantID, productID, "")
}

// ListForUpdate bloquea las capas del producto para consumo/entrada.
func (r *ValuationLayerRepo) ListForUpdate(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	return r.list(ctx, tenantID, productID, " FOR UPDATE")
}

func (r *ValuationLayerRepo) list(ctx context.Context, tenantID, productID, locking string) ([]entity.ValuationLayer, error) {
	query := `
		SELECT id, tenant_id, product_id, layer_seq, remaining_qty, unit_cost, created_at
		FROM valuation_layers WHERE tenant_id = $1 AND product_id = $2
		ORDER BY layer_seq ASC` + locking
	rows, err := r.q.Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("list valuation layers: %w", mapError(err))
	}
	defer rows.Close()
	var list []entity.ValuationLayer
	for rows.Next() {
		var l entity.ValuationLayer
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ProductID, &l.LayerSeq, &l.RemainingQty, &l.UnitCost, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan valuation layer: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Replace reemplaza el conjunto completo de capas del producto dentro de la
// transacción actual. Las capas vivas por producto son pocas (decenas), el
// delete+insert es más simple y seguro que un diff.
func (r *ValuationLayerRepo) Replace(ctx context.Context, tenantID, productID string, layers []entity.ValuationLayer) error {
	if _, err := r.q.Exec(ctx,
		`DELETE FROM valuation_layers WHERE tenant_id = $1 AND product_id = $2`,
		tenantID, productID,
	); err != nil {
		return fmt.Errorf("replace valuation layers (delete): %w", err)
	}
	query := `
		INSERT INTO valuation_layers (id, tenant_id, product_id, layer_seq, remaining_qty, unit_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range layers {
		l := &layers[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.TenantID == "" {
			l.TenantID = tenantID
		}
		if l.ProductID == "" {
			l.ProductID = productID
		}
		if _, err := r.q.Exec(ctx, query, l.ID, l.TenantID, l.ProductID, l.LayerSeq, l.RemainingQty, l.UnitCost, l.CreatedAt); err != nil {
			return fmt.Errorf("replace valuation layers (insert): %w", mapError(err))
		}
	}
	return nil
}

// ListProductsWithLayers IDs de producto con capas vivas (migración de método).
func (r *ValuationLayerRepo) ListProductsWithLayers(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT DISTINCT product_id FROM valuation_layers WHERE tenant_id = $1 ORDER BY product_id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list products with layers: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
