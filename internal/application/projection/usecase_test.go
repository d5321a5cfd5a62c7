package projection_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/projection"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
)

const testTenant = "tenant-a"

type testEnv struct {
	store     *memory.Store
	repos     ledger.Repos
	products  *memory.ProductRepo
	locations *memory.LocationRepo
	ledgerUC  *ledger.UseCase
	uc        *projection.UseCase
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	products := memory.NewProductRepository(store)
	locations := memory.NewLocationRepository(store)
	txRunner := memory.NewTxRunner(store)
	ledgerUC := ledger.NewUseCase(
		txRunner, products, locations,
		repos.Movements, repos.Layers, repos.Settings,
		ledger.Defaults{ValuationMethod: valuation.MethodFIFO, FYStartMonth: time.April},
	)
	uc := projection.NewUseCase(txRunner, ledgerUC, repos.Movements, repos.Balances)
	return &testEnv{store: store, repos: repos, products: products, locations: locations, ledgerUC: ledgerUC, uc: uc}
}

func (e *testEnv) seedCatalog(t *testing.T, sku string) (productID, locationID string) {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{TenantID: testTenant, SKU: sku, Name: "Producto " + sku, IsActive: true}
	require.NoError(t, e.products.Create(ctx, p))
	l := &entity.Location{TenantID: testTenant, Code: "BOD-" + sku, Name: "Bodega", IsActive: true}
	require.NoError(t, e.locations.Create(ctx, l))
	return p.ID, l.ID
}

func (e *testEnv) seedLocation(t *testing.T, code string) string {
	t.Helper()
	l := &entity.Location{TenantID: testTenant, Code: code, Name: "Bodega " + code, IsActive: true}
	require.NoError(t, e.locations.Create(context.Background(), l))
	return l.ID
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (e *testEnv) append(t *testing.T, productID, locationID, qty string, unitCost *decimal.Decimal) *entity.Movement {
	t.Helper()
	in := ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   dec(qty),
		UnitCost:   unitCost,
		RefType:    entity.RefTypeManual,
	}
	if in.Quantity.IsPositive() {
		in.Type = entity.MovementTypeIN
	} else {
		in.Type = entity.MovementTypeOUT
	}
	mov, err := e.ledgerUC.Append(context.Background(), testTenant, in)
	require.NoError(t, err)
	return mov
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestGetBalance_LecturaMaterializada(t *testing.T) {
	e := newEnv(t)
	productID, locationID := e.seedCatalog(t, "SKU-001")
	e.append(t, productID, locationID, "10", decPtr("10"))
	last := e.append(t, productID, locationID, "-4", nil)

	b, err := e.uc.GetBalance(context.Background(), testTenant, productID, locationID, nil)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(b.Quantity))
	assert.Equal(t, last.LedgerSeq, b.LastAppliedSeq)
}

func TestGetBalance_SinMovimientosEsCero(t *testing.T) {
	e := newEnv(t)
	productID, locationID := e.seedCatalog(t, "SKU-001")

	b, err := e.uc.GetBalance(context.Background(), testTenant, productID, locationID, nil)
	require.NoError(t, err)
	assert.True(t, b.Quantity.IsZero(), "sin movimientos el balance es cero, no un error")
}

func TestGetBalance_AsOfReconstruyeElHistorico(t *testing.T) {
	e := newEnv(t)
	productID, locationID := e.seedCatalog(t, "SKU-001")

	e.append(t, productID, locationID, "10", decPtr("10"))
	time.Sleep(5 * time.Millisecond)
	cut := time.Now()
	time.Sleep(5 * time.Millisecond)
	e.append(t, productID, locationID, "-4", nil)

	// A la fecha de corte solo existía la entrada
	historical, err := e.uc.GetBalance(context.Background(), testTenant, productID, locationID, &cut)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(historical.Quantity), "a la fecha de corte el balance era 10, fue %s", historical.Quantity)

	current, err := e.uc.GetBalance(context.Background(), testTenant, productID, locationID, nil)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(current.Quantity))
}

func TestRebuild_EquivaleALaProyeccionIncremental(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, "SKU-001")

	e.append(t, productID, locationID, "5", decPtr("10"))
	e.append(t, productID, locationID, "5", decPtr("12"))
	e.append(t, productID, locationID, "-6", nil)

	incremental, err := e.repos.Balances.Get(ctx, testTenant, productID, locationID)
	require.NoError(t, err)
	layersBefore, err := e.repos.Layers.List(ctx, testTenant, productID)
	require.NoError(t, err)

	// Corromper la fila materializada simula una proyección desfasada
	require.NoError(t, e.repos.Balances.Upsert(ctx, &entity.Balance{
		TenantID:   testTenant,
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   dec("999"),
	}))

	rebuilt, err := e.uc.Rebuild(ctx, testTenant, productID, locationID)
	require.NoError(t, err)

	assert.True(t, incremental.Quantity.Equal(rebuilt.Quantity),
		"el rebuild debe producir el mismo balance que la proyección incremental")
	assert.Equal(t, incremental.LastAppliedSeq, rebuilt.LastAppliedSeq)

	layersAfter, err := e.repos.Layers.List(ctx, testTenant, productID)
	require.NoError(t, err)
	require.Len(t, layersAfter, len(layersBefore))
	for i := range layersBefore {
		assert.True(t, layersBefore[i].RemainingQty.Equal(layersAfter[i].RemainingQty))
		assert.True(t, layersBefore[i].UnitCost.Equal(layersAfter[i].UnitCost))
	}
}

func TestRebuild_CapasDesdeLaHistoriaCompletaDelProducto(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, loc1 := e.seedCatalog(t, "SKU-001")
	loc2 := e.seedLocation(t, "BOD-2")

	// Las capas son por producto; el balance por (producto, ubicación)
	e.append(t, productID, loc1, "5", decPtr("10"))
	e.append(t, productID, loc2, "5", decPtr("12"))
	e.append(t, productID, loc1, "-3", nil)

	_, err := e.uc.Rebuild(ctx, testTenant, productID, loc1)
	require.NoError(t, err)

	layers, err := e.repos.Layers.List(ctx, testTenant, productID)
	require.NoError(t, err)
	require.Len(t, layers, 2, "FIFO: lote parcial de $10 y lote intacto de $12")
	assert.True(t, dec("2").Equal(layers[0].RemainingQty))
	assert.True(t, dec("10").Equal(layers[0].UnitCost))
	assert.True(t, dec("5").Equal(layers[1].RemainingQty))

	b1, err := e.repos.Balances.Get(ctx, testTenant, productID, loc1)
	require.NoError(t, err)
	b2, err := e.repos.Balances.Get(ctx, testTenant, productID, loc2)
	require.NoError(t, err)
	assert.True(t, valuation.TotalQty(layers).Equal(b1.Quantity.Add(b2.Quantity)),
		"Σ capas debe cuadrar con la suma de balances del producto")
}

func TestGetBalance_EntradaInvalida(t *testing.T) {
	e := newEnv(t)
	_, err := e.uc.GetBalance(context.Background(), "", "p", "l", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.uc.GetBalance(context.Background(), testTenant, "", "l", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.uc.Rebuild(context.Background(), testTenant, "p", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListBalances_ProyeccionCompletaDelTenant(t *testing.T) {
	e := newEnv(t)
	p1, l1 := e.seedCatalog(t, "SKU-001")
	p2, l2 := e.seedCatalog(t, "SKU-002")
	e.append(t, p1, l1, "10", decPtr("10"))
	e.append(t, p2, l2, "3", decPtr("8"))

	list, err := e.uc.ListBalances(context.Background(), testTenant)
	require.NoError(t, err)
	require.Len(t, list, 2, "un balance por (producto, ubicación) con movimientos")

	byProduct := map[string]decimal.Decimal{}
	for _, b := range list {
		byProduct[b.ProductID] = b.Quantity
	}
	assert.True(t, dec("10").Equal(byProduct[p1]))
	assert.True(t, dec("3").Equal(byProduct[p2]))

	_, err = e.uc.ListBalances(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
