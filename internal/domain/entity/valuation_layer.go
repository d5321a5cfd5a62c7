package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationLayer es un lote de costo FIFO/LIFO por (tenant, producto).
// Para promedio ponderado colapsa a un único lote corriente.
// Invariante: Σ RemainingQty == Σ Balance.Quantity del producto (valoración por capas).
type ValuationLayer struct {
	ID           string
	TenantID     string
	ProductID    string
	LayerSeq     int64 // orden de creación del lote dentro del producto
	RemainingQty decimal.Decimal
	UnitCost     decimal.Decimal
	CreatedAt    time.Time
}

// TenantSettings parámetros de valoración por tenant. El cambio de método es
// una migración administrativa explícita (re-siembra de capas), nunca un
// branch implícito por llamada.
type TenantSettings struct {
	TenantID           string
	ValuationMethod    string // valuation.MethodFIFO | MethodLIFO | MethodWeightedAverage
	AllowNegativeStock bool
	MethodSwitchedAt   *time.Time
	UpdatedAt          time.Time
}
