package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// La capa de orquestación decide reintentar, propagar o abortar según el tipo;
// nada se colapsa en un error genérico.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrBusy: contención transitoria de bloqueo de fila. El caller debe
	// reintentar con backoff usando la misma idempotency key.
	ErrBusy = errors.New("recurso ocupado, reintentar")

	// ErrSequenceExhausted: el contador de consecutivos llegó a su límite.
	// Requiere intervención del operador; nunca se reinicia solo.
	ErrSequenceExhausted = errors.New("secuencia de consecutivos agotada")

	// ErrTenantIsolation: una operación observó datos de otro tenant.
	// Si se detecta se aborta y se registra como incidente de seguridad,
	// nunca se corrige en silencio.
	ErrTenantIsolation = errors.New("violación de aislamiento de tenant")

	// ErrDocumentPaid: PAID es terminal; el documento no se puede anular ni eliminar.
	ErrDocumentPaid = errors.New("documento pagado: estado terminal")
)
