package entity

import "time"

// SequenceCounter contador de consecutivos por (tenant, scope key).
// CurrentValue es estrictamente creciente; se crea perezosamente en el primer
// uso del scope (guardado por constraint de unicidad) y nunca se reinicia.
type SequenceCounter struct {
	TenantID     string
	ScopeKey     string // típicamente prefijo + año fiscal, ej. "INV/2025-26"
	CurrentValue int64
	UpdatedAt    time.Time
}

// Estados de un número de documento emitido.
const (
	DocumentNumberConsumed = "CONSUMED"
	DocumentNumberVoided   = "VOIDED" // anulado con rastro de auditoría; nunca se reutiliza
)

// DocumentNumber registro de emisión que ata un consecutivo a un documento.
type DocumentNumber struct {
	TenantID   string
	ScopeKey   string
	Value      int64
	DocumentID string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
