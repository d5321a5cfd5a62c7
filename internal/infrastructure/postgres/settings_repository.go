package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo parámetros de valoración por tenant (usable con pool o tx).
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Get devuelve nil si el tenant aún no tiene fila de parámetros.
func (r *SettingsRepo) Get(ctx context.Context, tenantID string) (*entity.TenantSettings, error) {
	query := `
		SELECT tenant_id, valuation_method, allow_negative_stock, method_switched_at, updated_at
		FROM tenant_settings WHERE tenant_id = $1`
	var s entity.TenantSettings
	err := r.q.QueryRow(ctx, query, tenantID).Scan(
		&s.TenantID, &s.ValuationMethod, &s.AllowNegativeStock, &s.MethodSwitchedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant settings: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza los parámetros del tenant.
func (r *SettingsRepo) Upsert(ctx context.Context, s *entity.TenantSettings) error {
	query := `
		INSERT INTO tenant_settings (tenant_id, valuation_method, allow_negative_stock, method_switched_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (tenant_id)
		DO UPDATE SET valuation_method = EXCLUDED.valuation_method,
			allow_negative_stock = EXCLUDED.allow_negative_stock,
			method_switched_at = EXCLUDED.method_switched_at,
			updated_at = now()`
	_, err := r.q.Exec(ctx, query, s.TenantID, s.ValuationMethod, s.AllowNegativeStock, s.MethodSwitchedAt)
	if err != nil {
		return fmt.Errorf("upsert tenant settings: %w", err)
	}
	return nil
}
