package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Métodos de valoración soportados. Se seleccionan por tenant; el cambio es
// una migración administrativa (ver Reseed), nunca un flag por llamada.
const (
	MethodFIFO            = "FIFO"
	MethodLIFO            = "LIFO"
	MethodWeightedAverage = "WEIGHTED_AVERAGE"
)

// ValidMethod indica si el método es uno de los soportados.
func ValidMethod(m string) bool {
	return m == MethodFIFO || m == MethodLIFO || m == MethodWeightedAverage
}

// Strategy calcula costo de inventario sobre capas (lotes). Las funciones son
// puras: reciben las capas actuales y devuelven las capas resultantes; la
// persistencia la hace el caller dentro de su transacción.
// Cantidades y dinero en decimal de punto fijo, nunca float binario.
type Strategy interface {
	Method() string
	// Add registra una entrada de qty unidades a unitCost y devuelve las capas resultantes.
	Add(layers []entity.ValuationLayer, qty, unitCost decimal.Decimal) []entity.ValuationLayer
	// Consume descuenta qty unidades (positiva) y devuelve el costo total
	// consumido y las capas restantes. ErrInsufficientStock si las capas no alcanzan.
	Consume(layers []entity.ValuationLayer, qty decimal.Decimal) (decimal.Decimal, []entity.ValuationLayer, error)
}

// ForMethod devuelve la estrategia del método indicado.
func ForMethod(method string) (Strategy, error) {
	switch method {
	case MethodFIFO:
		return fifoStrategy{}, nil
	case MethodLIFO:
		return lifoStrategy{}, nil
	case MethodWeightedAverage:
		return averageStrategy{}, nil
	}
	return nil, domain.ErrInvalidInput
}

// TotalQty suma la cantidad restante de todas las capas.
func TotalQty(layers []entity.ValuationLayer) decimal.Decimal {
	total := decimal.Zero
	for _, l := range layers {
		total = total.Add(l.RemainingQty)
	}
	return total
}

// TotalValue suma RemainingQty * UnitCost de todas las capas.
func TotalValue(layers []entity.ValuationLayer) decimal.Decimal {
	total := decimal.Zero
	for _, l := range layers {
		total = total.Add(l.RemainingQty.Mul(l.UnitCost))
	}
	return total
}

// AverageCost costo promedio de las capas actuales (cero si no hay existencia).
func AverageCost(layers []entity.ValuationLayer) decimal.Decimal {
	qty := TotalQty(layers)
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return TotalValue(layers).Div(qty)
}

// Reseed colapsa las capas actuales en una sola capa semilla que conserva
// cantidad y valor totales. Es el paso central de la migración de método:
// el nuevo método parte de este lote único en vez de reinterpretar la
// historia con reglas distintas.
func Reseed(layers []entity.ValuationLayer) []entity.ValuationLayer {
	qty := TotalQty(layers)
	if qty.IsZero() {
		return nil
	}
	return []entity.ValuationLayer{{
		LayerSeq:     1,
		RemainingQty: qty,
		UnitCost:     AverageCost(layers),
	}}
}

// nextLayerSeq consecutivo del siguiente lote dentro del producto.
func nextLayerSeq(layers []entity.ValuationLayer) int64 {
	var max int64
	for _, l := range layers {
		if l.LayerSeq > max {
			max = l.LayerSeq
		}
	}
	return max + 1
}
