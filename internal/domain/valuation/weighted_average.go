package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// averageStrategy mantiene un único lote corriente {cantidad, costo promedio}.
// NuevoPromedio = (QtyActual*CostoActual + QtyEntrada*CostoEntrada) / (QtyActual + QtyEntrada)
type averageStrategy struct{}

func (averageStrategy) Method() string { return MethodWeightedAverage }

func (averageStrategy) Add(layers []entity.ValuationLayer, qty, unitCost decimal.Decimal) []entity.ValuationLayer {
	curQty := TotalQty(layers)
	curValue := TotalValue(layers)

	newQty := curQty.Add(qty)
	if newQty.IsZero() {
		// Lote saldado. Si el saldo venía negativo (ventas en descubierto al
		// promedio anterior) puede quedar un valor residual
		// (curValue + qty*unitCost); se da de baja con el lote: el siguiente
		// ingreso re-siembra la base de costo con su propio costo unitario.
		return nil
	}
	avg := curValue.Add(qty.Mul(unitCost)).Div(newQty)

	seq := int64(1)
	if len(layers) > 0 {
		seq = layers[0].LayerSeq
	}
	return []entity.ValuationLayer{{
		LayerSeq:     seq,
		RemainingQty: newQty,
		UnitCost:     avg,
	}}
}

// Consume admite que el lote corriente quede negativo: la política de stock
// negativo se decide en la capa de aplicación, no aquí. FIFO/LIFO en cambio
// rechazan el consumo cuando las capas no alcanzan.
func (averageStrategy) Consume(layers []entity.ValuationLayer, qty decimal.Decimal) (decimal.Decimal, []entity.ValuationLayer, error) {
	if !qty.IsPositive() {
		return decimal.Zero, layers, domain.ErrInvalidInput
	}
	curQty := TotalQty(layers)
	avg := AverageCost(layers)
	cost := qty.Mul(avg)

	remaining := curQty.Sub(qty)
	if remaining.IsZero() {
		return cost, nil, nil
	}
	seq := int64(1)
	if len(layers) > 0 {
		seq = layers[0].LayerSeq
	}
	return cost, []entity.ValuationLayer{{
		LayerSeq:     seq,
		RemainingQty: remaining,
		UnitCost:     avg,
	}}, nil
}
