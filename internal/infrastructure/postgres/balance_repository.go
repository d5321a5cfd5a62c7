package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo proyección de existencias sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Get obtiene el balance materializado; sin fila devuelve balance en cero.
func (r *BalanceRepo) Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	query := `
		SELECT tenant_id, product_id, location_id, quantity, last_applied_seq, updated_at
		FROM balances WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3`
	return r.getOne(ctx, query, tenantID, productID, locationID)
}

// GetForUpdate obtiene el balance y bloquea la fila (SELECT FOR UPDATE).
// Si la fila no existe aún no hay nada que bloquear; la exclusión entre
// escritores del producto la da ValuationLayerRepo.LockProduct, que el
// caller toma antes de esta lectura.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	query := `
		SELECT tenant_id, product_id, location_id, quantity, last_applied_seq, updated_at
		FROM balances WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3
		FOR UPDATE`
	return r.getOne(ctx, query, tenantID, productID, locationID)
}

func (r *BalanceRepo) getOne(ctx context.Context, query, tenantID, productID, locationID string) (*entity.Balance, error) {
	var b entity.Balance
	err := r.q.QueryRow(ctx, query, tenantID, productID, locationID).Scan(
		&b.TenantID, &b.ProductID, &b.LocationID, &b.Quantity, &b.LastAppliedSeq, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Balance{
				TenantID:   tenantID,
				ProductID:  productID,
				LocationID: locationID,
				Quantity:   decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get balance: %w", mapError(err))
	}
	return &b, nil
}

// Upsert inserta o actualiza la proyección por (tenant, producto, ubicación).
func (r *BalanceRepo) Upsert(ctx context.Context, b *entity.Balance) error {
	query := `
		INSERT INTO balances (tenant_id, product_id, location_id, quantity, last_applied_seq, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tenant_id, product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_applied_seq = EXCLUDED.last_applied_seq, updated_at = now()`
	_, err := r.q.Exec(ctx, query, b.TenantID, b.ProductID, b.LocationID, b.Quantity, b.LastAppliedSeq)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", mapError(err))
	}
	return nil
}

// ListByTenant lista todos los balances del tenant.
func (r *BalanceRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Balance, error) {
	query := `
		SELECT tenant_id, product_id, location_id, quantity, last_applied_seq, updated_at
		FROM balances WHERE tenant_id = $1
		ORDER BY product_id, location_id`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.Balance
	for rows.Next() {
		var b entity.Balance
		if err := rows.Scan(&b.TenantID, &b.ProductID, &b.LocationID, &b.Quantity, &b.LastAppliedSeq, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
