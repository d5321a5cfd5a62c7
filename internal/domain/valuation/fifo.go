package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// fifoStrategy consume primero los lotes más antiguos (LayerSeq ascendente),
// partiendo el lote cuando el consumo es parcial.
type fifoStrategy struct{}

func (fifoStrategy) Method() string { return MethodFIFO }

func (fifoStrategy) Add(layers []entity.ValuationLayer, qty, unitCost decimal.Decimal) []entity.ValuationLayer {
	return append(layers, entity.ValuationLayer{
		LayerSeq:     nextLayerSeq(layers),
		RemainingQty: qty,
		UnitCost:     unitCost,
	})
}

func (fifoStrategy) Consume(layers []entity.ValuationLayer, qty decimal.Decimal) (decimal.Decimal, []entity.ValuationLayer, error) {
	return consumeOrdered(layers, qty, false)
}

// consumeOrdered descuenta qty de las capas en orden de LayerSeq; newestFirst
// invierte el orden (LIFO). Las capas llegan ordenadas ascendentemente por
// LayerSeq desde el repositorio.
func consumeOrdered(layers []entity.ValuationLayer, qty decimal.Decimal, newestFirst bool) (decimal.Decimal, []entity.ValuationLayer, error) {
	if !qty.IsPositive() {
		return decimal.Zero, layers, domain.ErrInvalidInput
	}
	if TotalQty(layers).LessThan(qty) {
		return decimal.Zero, layers, domain.ErrInsufficientStock
	}

	remaining := qty
	cost := decimal.Zero
	out := make([]entity.ValuationLayer, len(layers))
	copy(out, layers)

	idx := func(i int) int {
		if newestFirst {
			return len(out) - 1 - i
		}
		return i
	}
	for i := 0; i < len(out) && remaining.IsPositive(); i++ {
		l := &out[idx(i)]
		if !l.RemainingQty.IsPositive() {
			continue
		}
		take := l.RemainingQty
		if take.GreaterThan(remaining) {
			take = remaining
		}
		cost = cost.Add(take.Mul(l.UnitCost))
		l.RemainingQty = l.RemainingQty.Sub(take)
		remaining = remaining.Sub(take)
	}

	// Descartar lotes agotados
	kept := out[:0]
	for _, l := range out {
		if l.RemainingQty.IsPositive() {
			kept = append(kept, l)
		}
	}
	return cost, kept, nil
}
