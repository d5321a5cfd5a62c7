package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del kardex.
const (
	MovementTypeIN     = "IN"     // entrada (cantidad positiva)
	MovementTypeOUT    = "OUT"    // salida (cantidad negativa)
	MovementTypeADJUST = "ADJUST" // ajuste por conciliación (cualquier signo)
)

// Tipos de documento de referencia de un movimiento.
const (
	RefTypeInvoice        = "INVOICE"
	RefTypePurchase       = "PURCHASE"
	RefTypeManual         = "MANUAL"
	RefTypeReconciliation = "RECONCILIATION"
	RefTypeVoid           = "VOID" // reversa por anulación de documento
)

// Movement es un asiento del kardex: evento inmutable de cantidad firmada
// contra un (producto, ubicación). Nunca se actualiza ni se borra; las
// correcciones son movimientos compensatorios nuevos.
// El orden lo define LedgerSeq (orden de asignación), no el reloj de pared.
type Movement struct {
	ID             string
	TenantID       string
	ProductID      string
	LocationID     string
	Quantity       decimal.Decimal // firmada: positiva entrada, negativa salida
	Type           string
	RefType        string
	RefID          string
	LedgerSeq      int64
	IdempotencyKey string
	UnitCost       decimal.Decimal // costo unitario de la entrada o costo consumido de la salida
	TotalCost      decimal.Decimal // Quantity * UnitCost (firmado)
	CreatedAt      time.Time
	CreatedBy      string
}

// SignConsistent verifica la coherencia tipo/signo del movimiento.
func (m *Movement) SignConsistent() bool {
	switch m.Type {
	case MovementTypeIN:
		return m.Quantity.IsPositive()
	case MovementTypeOUT:
		return m.Quantity.IsNegative()
	case MovementTypeADJUST:
		return !m.Quantity.IsZero()
	}
	return false
}
