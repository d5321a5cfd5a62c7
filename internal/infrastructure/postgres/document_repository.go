package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos y pagos sobre PostgreSQL (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, tenant_id, customer_id, prefix, scope_key, number, status,
		net_total, cost_total, idempotency_key, finalized_at, created_at, updated_at, created_by`

// Create persiste cabecera y líneas en la transacción actual.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document, lines []*entity.DocumentLine) error {
	query := `
		INSERT INTO documents (id, tenant_id, customer_id, prefix, scope_key, number, status,
			net_total, cost_total, idempotency_key, finalized_at, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	idemKey := (*string)(nil)
	if d.IdempotencyKey != "" {
		idemKey = &d.IdempotencyKey
	}
	createdBy := (*string)(nil)
	if d.CreatedBy != "" {
		createdBy = &d.CreatedBy
	}
	if _, err := r.q.Exec(ctx, query,
		d.ID, d.TenantID, d.CustomerID, d.Prefix, d.ScopeKey, d.Number, d.Status,
		d.NetTotal, d.CostTotal, idemKey, d.FinalizedAt, d.CreatedAt, d.UpdatedAt, createdBy,
	); err != nil {
		return fmt.Errorf("create document: %w", mapError(err))
	}

	lineQuery := `
		INSERT INTO document_lines (id, document_id, tenant_id, product_id, location_id, quantity, unit_price, unit_cost, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.DocumentID, l.TenantID, l.ProductID, l.LocationID, l.Quantity, l.UnitPrice, l.UnitCost, l.Subtotal,
		); err != nil {
			return fmt.Errorf("create document line: %w", mapError(err))
		}
	}
	return nil
}

// GetByID obtiene la cabecera del documento, o nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents WHERE tenant_id = $1 AND id = $2`
	return r.getOne(ctx, query, tenantID, id)
}

// GetForUpdate bloquea la cabecera para transiciones de estado.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`
	return r.getOne(ctx, query, tenantID, id)
}

// GetByIdempotencyKey documento previamente finalizado con la clave, o nil.
func (r *DocumentRepo) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents WHERE tenant_id = $1 AND idempotency_key = $2`
	return r.getOne(ctx, query, tenantID, key)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Document, error) {
	var d entity.Document
	var idemKey, createdBy *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.TenantID, &d.CustomerID, &d.Prefix, &d.ScopeKey, &d.Number, &d.Status,
		&d.NetTotal, &d.CostTotal, &idemKey, &d.FinalizedAt, &d.CreatedAt, &d.UpdatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", mapError(err))
	}
	if idemKey != nil {
		d.IdempotencyKey = *idemKey
	}
	if createdBy != nil {
		d.CreatedBy = *createdBy
	}
	return &d, nil
}

// GetLines líneas del documento en orden de inserción.
func (r *DocumentRepo) GetLines(ctx context.Context, tenantID, documentID string) ([]*entity.DocumentLine, error) {
	query := `
		SELECT id, document_id, tenant_id, product_id, location_id, quantity, unit_price, unit_cost, subtotal
		FROM document_lines WHERE tenant_id = $1 AND document_id = $2
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.DocumentLine
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.TenantID, &l.ProductID, &l.LocationID,
			&l.Quantity, &l.UnitPrice, &l.UnitCost, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// UpdateStatus transición de estado de la cabecera.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, status,
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document status: documento no encontrado %s", id)
	}
	return nil
}

// CreatePayment registra un pago del documento.
func (r *DocumentRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payments (id, tenant_id, document_id, amount, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, p.ID, p.TenantID, p.DocumentID, p.Amount, p.ReceivedAt, p.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", mapError(err))
	}
	return nil
}

// ListPayments pagos del documento en orden de registro.
func (r *DocumentRepo) ListPayments(ctx context.Context, tenantID, documentID string) ([]*entity.Payment, error) {
	query := `
		SELECT id, tenant_id, document_id, amount, received_at, created_at
		FROM payments WHERE tenant_id = $1 AND document_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.DocumentID, &p.Amount, &p.ReceivedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
