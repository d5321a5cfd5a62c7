package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo registros de conciliación física (usable con pool o tx).
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// Create persiste el registro PENDING.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *entity.ReconciliationRecord) error {
	query := `
		INSERT INTO reconciliation_records (id, tenant_id, product_id, location_id, expected_qty, counted_qty,
			variance, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	createdBy := (*string)(nil)
	if rec.CreatedBy != "" {
		createdBy = &rec.CreatedBy
	}
	if _, err := r.q.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.ProductID, rec.LocationID, rec.ExpectedQty, rec.CountedQty,
		rec.Variance, rec.Status, rec.CreatedAt, createdBy,
	); err != nil {
		return fmt.Errorf("create reconciliation record: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene el registro, o nil si no existe.
func (r *ReconciliationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.ReconciliationRecord, error) {
	query := `
		SELECT id, tenant_id, product_id, location_id, expected_qty, counted_qty, variance, status,
			resulting_movement_id, created_at, applied_at, created_by
		FROM reconciliation_records WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`
	var rec entity.ReconciliationRecord
	var movementID, createdBy *string
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&rec.ID, &rec.TenantID, &rec.ProductID, &rec.LocationID, &rec.ExpectedQty, &rec.CountedQty,
		&rec.Variance, &rec.Status, &movementID, &rec.CreatedAt, &rec.AppliedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reconciliation record: %w", mapError(err))
	}
	if movementID != nil {
		rec.ResultingMovementID = *movementID
	}
	if createdBy != nil {
		rec.CreatedBy = *createdBy
	}
	return &rec, nil
}

// MarkApplied marca el registro APPLIED con el movimiento resultante.
func (r *ReconciliationRepo) MarkApplied(ctx context.Context, tenantID, id, movementID string) error {
	movID := (*string)(nil)
	if movementID != "" {
		movID = &movementID
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE reconciliation_records
		SET status = $3, resulting_movement_id = $4, applied_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $5`,
		tenantID, id, entity.ReconciliationApplied, movID, entity.ReconciliationPending,
	)
	if err != nil {
		return fmt.Errorf("mark reconciliation applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark reconciliation applied: registro no encontrado o ya aplicado %s", id)
	}
	return nil
}
