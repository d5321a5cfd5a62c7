package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance es la proyección materializada de existencias por
// (tenant, producto, ubicación). No es fuente de verdad: se deriva del
// kardex y debe poder reconstruirse por replay en cualquier momento.
// Invariante: Quantity == Σ Quantity de los movimientos hasta LastAppliedSeq.
type Balance struct {
	TenantID       string
	ProductID      string
	LocationID     string
	Quantity       decimal.Decimal
	LastAppliedSeq int64
	UpdatedAt      time.Time
}
