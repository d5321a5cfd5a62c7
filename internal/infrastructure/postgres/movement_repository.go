package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo kardex sobre PostgreSQL (usable con pool o tx). La tabla es
// append-only: no hay UPDATE ni DELETE de movimientos en ninguna ruta.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, tenant_id, product_id, location_id, quantity, type, ref_type, ref_id,
		ledger_seq, idempotency_key, unit_cost, total_cost, created_at, created_by`

// Create persiste el movimiento. ledger_seq es BIGSERIAL: el orden del kardex
// es el orden de asignación en la inserción, no el reloj de pared.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ledger_movements (id, tenant_id, product_id, location_id, quantity, type, ref_type, ref_id,
			idempotency_key, unit_cost, total_cost, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ledger_seq`
	idemKey := (*string)(nil)
	if m.IdempotencyKey != "" {
		idemKey = &m.IdempotencyKey
	}
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	err := r.q.QueryRow(ctx, query,
		m.ID, m.TenantID, m.ProductID, m.LocationID, m.Quantity, m.Type, m.RefType, m.RefID,
		idemKey, m.UnitCost, m.TotalCost, m.CreatedAt, createdBy,
	).Scan(&m.LedgerSeq)
	if err != nil {
		if isUniqueViolation(err) {
			return mapError(err)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByIdempotencyKey devuelve el movimiento previamente registrado con la
// misma clave para el tenant, o nil si no existe.
func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM ledger_movements WHERE tenant_id = $1 AND idempotency_key = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by idempotency key: %w", err)
	}
	return m, nil
}

// List lee movimientos del tenant según filtro, ordenados por ledger_seq.
func (r *MovementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM ledger_movements WHERE tenant_id = $1 AND product_id = $2`
	args := []any{tenantID, f.ProductID}
	pos := 3
	if f.LocationID != "" {
		query += fmt.Sprintf(" AND location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at < $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY ledger_seq ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	return r.queryMovements(ctx, query, args...)
}

// ListForReplay devuelve todos los movimientos de un (producto, ubicación)
// hasta asOf, en orden de ledger_seq. Sin límite: el replay necesita la
// historia completa.
func (r *MovementRepo) ListForReplay(ctx context.Context, tenantID, productID, locationID string, asOf *time.Time) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM ledger_movements WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3`
	args := []any{tenantID, productID, locationID}
	if asOf != nil {
		query += " AND created_at <= $4"
		args = append(args, *asOf)
	}
	query += " ORDER BY ledger_seq ASC"
	return r.queryMovements(ctx, query, args...)
}

// ListByProduct historia completa del producto en todas las ubicaciones.
func (r *MovementRepo) ListByProduct(ctx context.Context, tenantID, productID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM ledger_movements WHERE tenant_id = $1 AND product_id = $2
		ORDER BY ledger_seq ASC`
	return r.queryMovements(ctx, query, tenantID, productID)
}

func (r *MovementRepo) queryMovements(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var idemKey, createdBy *string
	if err := row.Scan(
		&m.ID, &m.TenantID, &m.ProductID, &m.LocationID, &m.Quantity, &m.Type, &m.RefType, &m.RefID,
		&m.LedgerSeq, &idemKey, &m.UnitCost, &m.TotalCost, &m.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	if idemKey != nil {
		m.IdempotencyKey = *idemKey
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}
