package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores de consecutivos sobre PostgreSQL (usable con pool o tx).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa atómicamente el contador del (tenant, scope) y devuelve el
// valor asignado. El upsert inicializa el scope en start la primera vez y
// toma el lock de fila solo durante el incremento; dos transacciones
// concurrentes se serializan sobre esa fila y nunca reciben el mismo valor.
func (r *SequenceRepo) Next(ctx context.Context, tenantID, scopeKey string, start int64) (int64, error) {
	query := `
		INSERT INTO sequence_counters (tenant_id, scope_key, current_value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, scope_key)
		DO UPDATE SET current_value = sequence_counters.current_value + 1, updated_at = now()
		RETURNING current_value`
	var value int64
	if err := r.q.QueryRow(ctx, query, tenantID, scopeKey, start).Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence value: %w", mapError(err))
	}
	return value, nil
}

// Current devuelve el último valor asignado (0 si el scope no existe).
func (r *SequenceRepo) Current(ctx context.Context, tenantID, scopeKey string) (int64, error) {
	var value int64
	err := r.q.QueryRow(ctx,
		`SELECT current_value FROM sequence_counters WHERE tenant_id = $1 AND scope_key = $2`,
		tenantID, scopeKey,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("current sequence value: %w", err)
	}
	return value, nil
}

// CreateDocumentNumber registra la emisión que ata el consecutivo al documento.
// El constraint único (tenant, scope, value) garantiza que un número nunca se
// emite dos veces, incluso ante un bug del asignador.
func (r *SequenceRepo) CreateDocumentNumber(ctx context.Context, n *entity.DocumentNumber) error {
	query := `
		INSERT INTO document_numbers (tenant_id, scope_key, value, document_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, n.TenantID, n.ScopeKey, n.Value, n.DocumentID, n.Status, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create document number: %w", mapError(err))
	}
	return nil
}

// UpdateDocumentNumberStatus marca CONSUMED o VOIDED. El registro persiste
// como rastro de auditoría; el valor nunca vuelve al contador.
func (r *SequenceRepo) UpdateDocumentNumberStatus(ctx context.Context, tenantID, scopeKey string, value int64, status string) error {
	query := `
		UPDATE document_numbers SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND scope_key = $2 AND value = $3`
	tag, err := r.q.Exec(ctx, query, tenantID, scopeKey, value, status)
	if err != nil {
		return fmt.Errorf("update document number status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document number status: emisión no encontrada %s/%s/%d", tenantID, scopeKey, value)
	}
	return nil
}
