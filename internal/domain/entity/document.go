package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del documento. PAID es terminal. VOIDED solo es alcanzable desde
// DRAFT o desde FINALIZED sin pagos registrados.
const (
	DocumentStatusDraft         = "DRAFT"
	DocumentStatusFinalized     = "FINALIZED"      // consecutivo asignado, stock consumido
	DocumentStatusPartiallyPaid = "PARTIALLY_PAID" // derivado de los pagos, nunca almacenado a mano
	DocumentStatusPaid          = "PAID"
	DocumentStatusVoided        = "VOIDED"
)

// Document cabecera de un documento finalizado (factura de venta o compra).
// El número proviene del SequenceCounter del scope; una vez emitido no se
// reutiliza para otro documento.
type Document struct {
	ID             string
	TenantID       string
	CustomerID     string
	Prefix         string
	ScopeKey       string
	Number         int64
	Status         string
	NetTotal       decimal.Decimal // Σ subtotales de línea
	CostTotal      decimal.Decimal // Σ costo consumido de inventario
	IdempotencyKey string
	FinalizedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CreatedBy      string
}

// CanVoid indica si el documento admite anulación desde su estado actual.
func (d *Document) CanVoid() bool {
	return d.Status == DocumentStatusDraft || d.Status == DocumentStatusFinalized
}

// Terminal indica si el documento está en estado terminal.
func (d *Document) Terminal() bool {
	return d.Status == DocumentStatusPaid
}

// DocumentLine línea de documento con el costo unitario calculado por el
// motor de valoración al finalizar.
type DocumentLine struct {
	ID         string
	DocumentID string
	TenantID   string
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	UnitCost   decimal.Decimal // costo promedio consumido de las capas
	Subtotal   decimal.Decimal
}

// Payment pago asociado a un documento. Referencia unidireccional: el estado
// pagado/parcial del documento se recalcula desde los pagos, no se sincroniza
// con un back-pointer.
type Payment struct {
	ID         string
	TenantID   string
	DocumentID string
	Amount     decimal.Decimal
	ReceivedAt time.Time
	CreatedAt  time.Time
}
