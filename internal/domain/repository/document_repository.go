package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// DocumentRepository puerto de documentos finalizados y sus pagos.
type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document, lines []*entity.DocumentLine) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Document, error)
	// GetForUpdate bloquea la cabecera para transiciones de estado.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Document, error)
	GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.Document, error)
	GetLines(ctx context.Context, tenantID, documentID string) ([]*entity.DocumentLine, error)
	UpdateStatus(ctx context.Context, tenantID, id, status string) error
	CreatePayment(ctx context.Context, p *entity.Payment) error
	ListPayments(ctx context.Context, tenantID, documentID string) ([]*entity.Payment, error)
}
