package valuation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// capas iniciales: 5 unidades a $10 y 5 unidades a $12 (en orden de entrada).
func seedLayers(t *testing.T, s valuation.Strategy) []entity.ValuationLayer {
	t.Helper()
	layers := s.Add(nil, dec("5"), dec("10"))
	layers = s.Add(layers, dec("5"), dec("12"))
	return layers
}

// ──────────────────────────────────────────────────────────────────────────────
// FIFO
// ──────────────────────────────────────────────────────────────────────────────

func TestFIFO_ConsumeCruzaLotes(t *testing.T) {
	s, err := valuation.ForMethod(valuation.MethodFIFO)
	require.NoError(t, err)
	layers := seedLayers(t, s)

	// Consumir 7: agota el lote de $10 (5) y toma 2 del lote de $12
	cost, rest, err := s.Consume(layers, dec("7"))
	require.NoError(t, err)

	assert.True(t, dec("74").Equal(cost), "costo esperado 5*10 + 2*12 = 74, fue %s", cost)
	require.Len(t, rest, 1, "debe quedar un solo lote")
	assert.True(t, dec("3").Equal(rest[0].RemainingQty), "deben quedar 3 unidades")
	assert.True(t, dec("12").Equal(rest[0].UnitCost), "el remanente debe ser del lote de $12")
}

func TestFIFO_ConsumeParcialDeUnLote(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	cost, rest, err := s.Consume(layers, dec("3"))
	require.NoError(t, err)

	assert.True(t, dec("30").Equal(cost))
	require.Len(t, rest, 2)
	assert.True(t, dec("2").Equal(rest[0].RemainingQty), "el primer lote queda con 2")
	assert.True(t, dec("5").Equal(rest[1].RemainingQty), "el segundo lote queda intacto")
}

func TestFIFO_StockInsuficiente(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	_, _, err := s.Consume(layers, dec("11"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock,
		"consumir más de lo disponible debe fallar en FIFO")
}

func TestFIFO_CantidadNoPositiva(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	_, _, err := s.Consume(layers, dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = s.Consume(layers, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFIFO_NoMutaLasCapasDeEntrada(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	_, _, err := s.Consume(layers, dec("7"))
	require.NoError(t, err)

	// Las capas originales no deben cambiar (el caller decide cuándo persistir)
	assert.True(t, dec("5").Equal(layers[0].RemainingQty))
	assert.True(t, dec("5").Equal(layers[1].RemainingQty))
}

// ──────────────────────────────────────────────────────────────────────────────
// LIFO
// ──────────────────────────────────────────────────────────────────────────────

func TestLIFO_ConsumeDesdeElLoteMasReciente(t *testing.T) {
	s, err := valuation.ForMethod(valuation.MethodLIFO)
	require.NoError(t, err)
	layers := seedLayers(t, s)

	// Consumir 7: agota el lote de $12 (5) y toma 2 del lote de $10
	cost, rest, err := s.Consume(layers, dec("7"))
	require.NoError(t, err)

	assert.True(t, dec("80").Equal(cost), "costo esperado 5*12 + 2*10 = 80, fue %s", cost)
	require.Len(t, rest, 1)
	assert.True(t, dec("3").Equal(rest[0].RemainingQty))
	assert.True(t, dec("10").Equal(rest[0].UnitCost), "el remanente debe ser del lote de $10")
}

func TestLIFO_StockInsuficiente(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodLIFO)
	layers := seedLayers(t, s)

	_, _, err := s.Consume(layers, dec("100"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Promedio ponderado
// ──────────────────────────────────────────────────────────────────────────────

func TestPromedio_AddColapsaAUnSoloLote(t *testing.T) {
	s, err := valuation.ForMethod(valuation.MethodWeightedAverage)
	require.NoError(t, err)

	layers := s.Add(nil, dec("5"), dec("10"))
	layers = s.Add(layers, dec("5"), dec("12"))

	require.Len(t, layers, 1, "promedio ponderado mantiene un único lote corriente")
	assert.True(t, dec("10").Equal(layers[0].RemainingQty))
	assert.True(t, dec("11").Equal(layers[0].UnitCost), "promedio (50+60)/10 = 11")
}

func TestPromedio_ConsumeAlCostoPromedio(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodWeightedAverage)
	layers := s.Add(nil, dec("5"), dec("10"))
	layers = s.Add(layers, dec("5"), dec("12"))

	cost, rest, err := s.Consume(layers, dec("7"))
	require.NoError(t, err)

	assert.True(t, dec("77").Equal(cost), "costo esperado 7*11 = 77, fue %s", cost)
	require.Len(t, rest, 1)
	assert.True(t, dec("3").Equal(rest[0].RemainingQty))
}

func TestPromedio_ToleraRemanenteNegativo(t *testing.T) {
	// La política de stock negativo se decide en la capa de aplicación;
	// la estrategia de promedio debe poder representar el remanente.
	s, _ := valuation.ForMethod(valuation.MethodWeightedAverage)
	layers := s.Add(nil, dec("5"), dec("10"))

	cost, rest, err := s.Consume(layers, dec("8"))
	require.NoError(t, err)

	assert.True(t, dec("80").Equal(cost), "8*10 = 80")
	require.Len(t, rest, 1)
	assert.True(t, dec("-3").Equal(rest[0].RemainingQty))
}

// ──────────────────────────────────────────────────────────────────────────────
// Utilidades y re-siembra
// ──────────────────────────────────────────────────────────────────────────────

func TestForMethod_MetodoInvalido(t *testing.T) {
	_, err := valuation.ForMethod("COSTO_ESTANDAR")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReseed_ConservaCantidadYValor(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	qty := valuation.TotalQty(layers)
	value := valuation.TotalValue(layers)

	seeded := valuation.Reseed(layers)
	require.Len(t, seeded, 1, "la re-siembra colapsa a un único lote semilla")
	assert.True(t, qty.Equal(valuation.TotalQty(seeded)), "la cantidad se conserva")
	assert.True(t, value.Equal(valuation.TotalValue(seeded)), "el valor se conserva")
	assert.Equal(t, int64(1), seeded[0].LayerSeq)
}

func TestReseed_SinCapas(t *testing.T) {
	assert.Empty(t, valuation.Reseed(nil))
}

func TestAverageCost(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodFIFO)
	layers := seedLayers(t, s)

	// (5*10 + 5*12) / 10 = 11
	assert.True(t, dec("11").Equal(valuation.AverageCost(layers)))
	assert.True(t, decimal.Zero.Equal(valuation.AverageCost(nil)), "sin capas el promedio es 0")
}

func TestPromedio_SaldarElLoteDaDeBajaElResidualYReiniciaElCosto(t *testing.T) {
	s, _ := valuation.ForMethod(valuation.MethodWeightedAverage)

	// Venta en descubierto: 8 contra 5 deja el lote en -3 a $10
	layers := s.Add(nil, dec("5"), dec("10"))
	_, layers, err := s.Consume(layers, dec("8"))
	require.NoError(t, err)
	require.Len(t, layers, 1)
	require.True(t, dec("-3").Equal(layers[0].RemainingQty))

	// Reponer 3 a $12 salda el lote: la diferencia 3*(12-10) se da de baja
	// junto con él
	layers = s.Add(layers, dec("3"), dec("12"))
	assert.Empty(t, layers, "un lote saldado no deja capas ni valor residual")

	// El siguiente ingreso parte de su propio costo, sin arrastre
	layers = s.Add(layers, dec("5"), dec("20"))
	require.Len(t, layers, 1)
	assert.True(t, dec("5").Equal(layers[0].RemainingQty))
	assert.True(t, dec("20").Equal(layers[0].UnitCost),
		"la base de costo se re-siembra con el costo del nuevo ingreso")
}
