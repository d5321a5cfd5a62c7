package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// lifoStrategy consume primero los lotes más recientes.
type lifoStrategy struct{}

func (lifoStrategy) Method() string { return MethodLIFO }

func (lifoStrategy) Add(layers []entity.ValuationLayer, qty, unitCost decimal.Decimal) []entity.ValuationLayer {
	return append(layers, entity.ValuationLayer{
		LayerSeq:     nextLayerSeq(layers),
		RemainingQty: qty,
		UnitCost:     unitCost,
	})
}

func (lifoStrategy) Consume(layers []entity.ValuationLayer, qty decimal.Decimal) (decimal.Decimal, []entity.ValuationLayer, error) {
	return consumeOrdered(layers, qty, true)
}
