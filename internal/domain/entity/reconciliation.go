package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un registro de conciliación.
const (
	ReconciliationPending = "PENDING"
	ReconciliationApplied = "APPLIED"
)

// ReconciliationRecord compara la existencia proyectada contra el conteo
// físico. Al aplicarse genera un único movimiento ADJUST igual a la varianza;
// la historia del kardex nunca se muta.
type ReconciliationRecord struct {
	ID                  string
	TenantID            string
	ProductID           string
	LocationID          string
	ExpectedQty         decimal.Decimal // balance proyectado al momento del conteo
	CountedQty          decimal.Decimal
	Variance            decimal.Decimal // CountedQty - ExpectedQty
	Status              string
	ResultingMovementID string
	CreatedAt           time.Time
	AppliedAt           *time.Time
	CreatedBy           string
}
