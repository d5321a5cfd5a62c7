package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var (
	_ repository.DocumentRepository       = (*DocumentRepo)(nil)
	_ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)
)

// DocumentRepo documentos y pagos en memoria.
type DocumentRepo struct {
	s    *Store
	inTx bool
}

// NewDocumentRepository adaptador fuera de transacción (modo pool).
func NewDocumentRepository(s *Store) *DocumentRepo { return &DocumentRepo{s: s} }

func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document, lines []*entity.DocumentLine) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	k := key2(d.TenantID, d.ID)
	if _, exists := r.s.documents[k]; exists {
		return domain.ErrDuplicate
	}
	if d.IdempotencyKey != "" {
		for _, prev := range r.s.documents {
			if prev.TenantID == d.TenantID && prev.IdempotencyKey == d.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *d
	r.s.documents[k] = &cp
	ls := make([]*entity.DocumentLine, len(lines))
	for i, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		lcp := *l
		ls[i] = &lcp
	}
	r.s.lines[key2(d.TenantID, d.ID)] = ls
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Document, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if d, ok := r.s.documents[key2(tenantID, id)]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

// GetForUpdate en memoria equivale a GetByID: el TxRunner serializa todo.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Document, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *DocumentRepo) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Document, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	for _, d := range r.s.documents {
		if d.TenantID == tenantID && d.IdempotencyKey == key {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) GetLines(ctx context.Context, tenantID, documentID string) ([]*entity.DocumentLine, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	lines := r.s.lines[key2(tenantID, documentID)]
	out := make([]*entity.DocumentLine, len(lines))
	for i, l := range lines {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	d, ok := r.s.documents[key2(tenantID, id)]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	return nil
}

func (r *DocumentRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cp := *p
	k := key2(p.TenantID, p.DocumentID)
	r.s.payments[k] = append(r.s.payments[k], &cp)
	return nil
}

func (r *DocumentRepo) ListPayments(ctx context.Context, tenantID, documentID string) ([]*entity.Payment, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	payments := r.s.payments[key2(tenantID, documentID)]
	out := make([]*entity.Payment, len(payments))
	for i, p := range payments {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

// ReconciliationRepo registros de conciliación en memoria.
type ReconciliationRepo struct {
	s    *Store
	inTx bool
}

// NewReconciliationRepository adaptador fuera de transacción (modo pool).
func NewReconciliationRepository(s *Store) *ReconciliationRepo { return &ReconciliationRepo{s: s} }

func (r *ReconciliationRepo) Create(ctx context.Context, rec *entity.ReconciliationRecord) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	k := key2(rec.TenantID, rec.ID)
	if _, exists := r.s.recons[k]; exists {
		return domain.ErrDuplicate
	}
	cp := *rec
	r.s.recons[k] = &cp
	return nil
}

func (r *ReconciliationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.ReconciliationRecord, error) {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	if rec, ok := r.s.recons[key2(tenantID, id)]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (r *ReconciliationRepo) MarkApplied(ctx context.Context, tenantID, id, movementID string) error {
	r.s.lock(r.inTx)
	defer r.s.unlock(r.inTx)
	rec, ok := r.s.recons[key2(tenantID, id)]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.Status == entity.ReconciliationApplied {
		return domain.ErrConflict
	}
	now := time.Now()
	rec.Status = entity.ReconciliationApplied
	rec.ResultingMovementID = movementID
	rec.AppliedAt = &now
	return nil
}
