package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// SequenceRepository puerto del asignador de consecutivos.
type SequenceRepository interface {
	// Next incrementa atómicamente el contador del (tenant, scope) y devuelve
	// el valor asignado. Inicializa el scope en start la primera vez (guardado
	// por constraint de unicidad). El lock de fila se sostiene solo durante el
	// incremento; ErrBusy si no se obtiene dentro del lock_timeout.
	Next(ctx context.Context, tenantID, scopeKey string, start int64) (int64, error)
	// Current devuelve el último valor asignado (0 si el scope no existe).
	Current(ctx context.Context, tenantID, scopeKey string) (int64, error)
	// CreateDocumentNumber registra la emisión que ata el consecutivo al documento.
	CreateDocumentNumber(ctx context.Context, n *entity.DocumentNumber) error
	// UpdateDocumentNumberStatus marca CONSUMED o VOIDED; el número nunca se reutiliza.
	UpdateDocumentNumberStatus(ctx context.Context, tenantID, scopeKey string, value int64, status string) error
}
