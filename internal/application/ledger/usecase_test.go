package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/Kardex-api/pkg/fiscal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: motor de kardex sobre el backend en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

type testEnv struct {
	store     *memory.Store
	repos     ledger.Repos
	products  *memory.ProductRepo
	locations *memory.LocationRepo
	uc        *ledger.UseCase
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	products := memory.NewProductRepository(store)
	locations := memory.NewLocationRepository(store)
	uc := ledger.NewUseCase(
		memory.NewTxRunner(store),
		products,
		locations,
		repos.Movements,
		repos.Layers,
		repos.Settings,
		ledger.Defaults{ValuationMethod: valuation.MethodFIFO, FYStartMonth: time.April},
	)
	return &testEnv{store: store, repos: repos, products: products, locations: locations, uc: uc}
}

// seedCatalog crea un producto activo y una ubicación para el tenant.
func (e *testEnv) seedCatalog(t *testing.T, tenantID, sku string) (productID, locationID string) {
	t.Helper()
	ctx := context.Background()
	p := &entity.Product{TenantID: tenantID, SKU: sku, Name: "Producto " + sku, IsActive: true}
	require.NoError(t, e.products.Create(ctx, p))
	l := &entity.Location{TenantID: tenantID, Code: "BOD-" + sku, Name: "Bodega", IsActive: true}
	require.NoError(t, e.locations.Create(ctx, l))
	return p.ID, l.ID
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// entrada simple al kardex, falla el test si no se acepta.
func (e *testEnv) mustIn(t *testing.T, tenantID, productID, locationID, qty, cost string) *entity.Movement {
	t.Helper()
	mov, err := e.uc.Append(context.Background(), tenantID, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeIN,
		RefType:    entity.RefTypePurchase,
		Quantity:   dec(qty),
		UnitCost:   decPtr(cost),
	})
	require.NoError(t, err)
	return mov
}

// ──────────────────────────────────────────────────────────────────────────────
// Append: conservación, orden e idempotencia
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_BalanceEsLaSumaDeMovimientos(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	m1 := e.mustIn(t, tenantA, productID, locationID, "10", "10")
	m2, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeOUT,
		RefType:    entity.RefTypeManual,
		Quantity:   dec("-4"),
	})
	require.NoError(t, err)

	assert.Greater(t, m2.LedgerSeq, m1.LedgerSeq, "ledger_seq debe crecer en orden de asignación")

	balance, err := e.repos.Balances.Get(ctx, tenantA, productID, locationID)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(balance.Quantity), "balance = 10 - 4 = 6, fue %s", balance.Quantity)
	assert.Equal(t, m2.LedgerSeq, balance.LastAppliedSeq)

	// Conservación: el balance materializado es la suma firmada del kardex
	movs, err := e.uc.List(ctx, tenantA, ledger.ListFilter{ProductID: productID})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range movs {
		sum = sum.Add(m.Quantity)
	}
	assert.True(t, sum.Equal(balance.Quantity), "Σ movimientos debe igualar el balance")
}

func TestAppend_SalidaCosteadaPorCapasFIFO(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	e.mustIn(t, tenantA, productID, locationID, "5", "10")
	e.mustIn(t, tenantA, productID, locationID, "5", "12")

	mov, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeOUT,
		RefType:    entity.RefTypeManual,
		Quantity:   dec("-7"),
	})
	require.NoError(t, err)

	// FIFO: 5*10 + 2*12 = 74; TotalCost firmado en la salida
	assert.True(t, dec("-74").Equal(mov.TotalCost), "costo total firmado -74, fue %s", mov.TotalCost)

	layers, err := e.uc.Layers(ctx, tenantA, productID)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.True(t, dec("3").Equal(layers[0].RemainingQty))
	assert.True(t, dec("12").Equal(layers[0].UnitCost))
}

func TestAppend_IdempotenciaDevuelveElMovimientoPrevio(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	in := ledger.AppendInput{
		ProductID:      productID,
		LocationID:     locationID,
		Type:           entity.MovementTypeIN,
		RefType:        entity.RefTypePurchase,
		Quantity:       dec("10"),
		UnitCost:       decPtr("10"),
		IdempotencyKey: "compra-001",
	}
	first, err := e.uc.Append(ctx, tenantA, in)
	require.NoError(t, err)

	// Retry con la misma clave: mismo movimiento, sin efecto adicional
	second, err := e.uc.Append(ctx, tenantA, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "el retry debe devolver el movimiento original")
	assert.Equal(t, first.LedgerSeq, second.LedgerSeq)

	balance, err := e.repos.Balances.Get(ctx, tenantA, productID, locationID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(balance.Quantity), "el balance se aplica una sola vez")
}

func TestAppend_StockInsuficienteRevierteTodo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")
	e.mustIn(t, tenantA, productID, locationID, "3", "10")

	_, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeOUT,
		RefType:    entity.RefTypeManual,
		Quantity:   dec("-5"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nada quedó a medias: ni movimiento ni cambio de balance
	movs, err := e.uc.List(ctx, tenantA, ledger.ListFilter{ProductID: productID})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "la salida rechazada no debe asentarse")

	balance, err := e.repos.Balances.Get(ctx, tenantA, productID, locationID)
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(balance.Quantity))
}

func TestAppend_ValidacionDeTipoYSigno(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	cases := []struct {
		name string
		in   ledger.AppendInput
	}{
		{"entrada con cantidad negativa", ledger.AppendInput{
			ProductID: productID, LocationID: locationID,
			Type: entity.MovementTypeIN, Quantity: dec("-5"), UnitCost: decPtr("10"),
		}},
		{"entrada sin costo unitario", ledger.AppendInput{
			ProductID: productID, LocationID: locationID,
			Type: entity.MovementTypeIN, Quantity: dec("5"),
		}},
		{"salida con cantidad positiva", ledger.AppendInput{
			ProductID: productID, LocationID: locationID,
			Type: entity.MovementTypeOUT, Quantity: dec("5"),
		}},
		{"ajuste con cantidad cero", ledger.AppendInput{
			ProductID: productID, LocationID: locationID,
			Type: entity.MovementTypeADJUST, Quantity: dec("0"),
		}},
		{"tipo desconocido", ledger.AppendInput{
			ProductID: productID, LocationID: locationID,
			Type: "TRANSFER", Quantity: dec("5"), UnitCost: decPtr("10"),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.uc.Append(ctx, tenantA, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAppend_ProductoInexistenteOInactivo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	_, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  "no-existe",
		LocationID: locationID,
		Type:       entity.MovementTypeIN,
		Quantity:   dec("1"),
		UnitCost:   decPtr("10"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := &entity.Product{TenantID: tenantA, SKU: "SKU-OFF", Name: "Descontinuado", IsActive: false}
	require.NoError(t, e.products.Create(ctx, inactive))
	_, err = e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  inactive.ID,
		LocationID: locationID,
		Type:       entity.MovementTypeIN,
		Quantity:   dec("1"),
		UnitCost:   decPtr("10"),
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "producto inactivo no admite movimientos")
}

func TestAppend_AjustePositivoSinCostoEntraAlPromedio(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")
	e.mustIn(t, tenantA, productID, locationID, "5", "10")
	e.mustIn(t, tenantA, productID, locationID, "5", "12")

	mov, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeADJUST,
		RefType:    entity.RefTypeReconciliation,
		Quantity:   dec("2"),
	})
	require.NoError(t, err)

	// Promedio vigente: (50+60)/10 = 11
	assert.True(t, dec("11").Equal(mov.UnitCost), "ajuste positivo sin costo entra al promedio, fue %s", mov.UnitCost)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aislamiento de tenants
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_TenantsNoSeObservanEntreSi(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Mismo SKU en ambos tenants: catálogos independientes
	productA, locationA := e.seedCatalog(t, tenantA, "SKU-001")
	productB, locationB := e.seedCatalog(t, tenantB, "SKU-001")

	e.mustIn(t, tenantA, productA, locationA, "10", "10")

	movsB, err := e.uc.List(ctx, tenantB, ledger.ListFilter{ProductID: productB})
	require.NoError(t, err)
	assert.Empty(t, movsB, "los movimientos de un tenant no deben ser visibles para otro")

	balanceB, err := e.repos.Balances.Get(ctx, tenantB, productB, locationB)
	require.NoError(t, err)
	assert.True(t, balanceB.Quantity.IsZero())

	// El producto de A no existe en el catálogo de B
	_, err = e.uc.Append(ctx, tenantB, ledger.AppendInput{
		ProductID:  productA,
		LocationID: locationB,
		Type:       entity.MovementTypeIN,
		Quantity:   dec("1"),
		UnitCost:   decPtr("10"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de stock negativo y capas
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_StockNegativoPermitidoPorPolitica(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	require.NoError(t, e.repos.Settings.Upsert(ctx, &entity.TenantSettings{
		TenantID:           tenantA,
		ValuationMethod:    valuation.MethodWeightedAverage,
		AllowNegativeStock: true,
	}))

	e.mustIn(t, tenantA, productID, locationID, "5", "10")
	_, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeOUT,
		RefType:    entity.RefTypeManual,
		Quantity:   dec("-8"),
	})
	require.NoError(t, err, "con la política habilitada la salida en descubierto se acepta")

	balance, err := e.repos.Balances.Get(ctx, tenantA, productID, locationID)
	require.NoError(t, err)
	assert.True(t, dec("-3").Equal(balance.Quantity))
}

func TestLayers_CuadranConElBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	e.mustIn(t, tenantA, productID, locationID, "5", "10")
	e.mustIn(t, tenantA, productID, locationID, "5", "12")
	_, err := e.uc.Append(ctx, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeOUT,
		RefType:    entity.RefTypeManual,
		Quantity:   dec("-6"),
	})
	require.NoError(t, err)

	layers, err := e.uc.Layers(ctx, tenantA, productID)
	require.NoError(t, err)
	balance, err := e.repos.Balances.Get(ctx, tenantA, productID, locationID)
	require.NoError(t, err)

	assert.True(t, valuation.TotalQty(layers).Equal(balance.Quantity),
		"Σ capas (%s) debe cuadrar con el balance (%s)", valuation.TotalQty(layers), balance.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Migración de método de valoración
// ──────────────────────────────────────────────────────────────────────────────

func TestMigrateValuation_ReSiembraConservandoCantidadYValor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")
	e.mustIn(t, tenantA, productID, locationID, "5", "10")
	e.mustIn(t, tenantA, productID, locationID, "5", "12")

	before, err := e.uc.Layers(ctx, tenantA, productID)
	require.NoError(t, err)
	require.Len(t, before, 2)
	qty, value := valuation.TotalQty(before), valuation.TotalValue(before)

	require.NoError(t, e.uc.MigrateValuation(ctx, tenantA, valuation.MethodWeightedAverage))

	after, err := e.uc.Layers(ctx, tenantA, productID)
	require.NoError(t, err)
	require.Len(t, after, 1, "la migración colapsa las capas a un lote semilla")
	assert.True(t, qty.Equal(valuation.TotalQty(after)), "la cantidad se conserva")
	assert.True(t, value.Equal(valuation.TotalValue(after)), "el valor se conserva")

	settings, err := e.uc.Settings(ctx, tenantA)
	require.NoError(t, err)
	assert.Equal(t, valuation.MethodWeightedAverage, settings.ValuationMethod)
	assert.NotNil(t, settings.MethodSwitchedAt, "debe registrarse el momento del cambio")
}

func TestMigrateValuation_MismoMetodoEsConflicto(t *testing.T) {
	e := newEnv(t)
	err := e.uc.MigrateValuation(context.Background(), tenantA, valuation.MethodFIFO)
	assert.ErrorIs(t, err, domain.ErrConflict, "migrar al método vigente no es una operación válida")
}

func TestMigrateValuation_MetodoInvalido(t *testing.T) {
	e := newEnv(t)
	err := e.uc.MigrateValuation(context.Background(), tenantA, "COSTO_ESTANDAR")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura con filtro de año fiscal
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltroPorAnioFiscal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")
	e.mustIn(t, tenantA, productID, locationID, "10", "10")

	// El año fiscal vigente contiene el movimiento recién creado
	current := fiscal.Year(time.Now(), time.April)
	movs, err := e.uc.List(ctx, tenantA, ledger.ListFilter{ProductID: productID, FinancialYear: current})
	require.NoError(t, err)
	assert.Len(t, movs, 1)

	// Un año fiscal pasado no contiene nada
	movs, err = e.uc.List(ctx, tenantA, ledger.ListFilter{ProductID: productID, FinancialYear: "2001-02"})
	require.NoError(t, err)
	assert.Empty(t, movs)

	_, err = e.uc.List(ctx, tenantA, ledger.ListFilter{ProductID: productID, FinancialYear: "no-valido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de bloqueo en la sección crítica por producto
// ──────────────────────────────────────────────────────────────────────────────

// registra el orden de las llamadas que tocan balance y capas.
type callRecorder struct {
	calls []string
}

type recordingLayers struct {
	repository.ValuationLayerRepository
	rec *callRecorder
}

func (r *recordingLayers) LockProduct(ctx context.Context, tenantID, productID string) error {
	r.rec.calls = append(r.rec.calls, "lock-producto")
	return r.ValuationLayerRepository.LockProduct(ctx, tenantID, productID)
}

func (r *recordingLayers) ListForUpdate(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	r.rec.calls = append(r.rec.calls, "capas-for-update")
	return r.ValuationLayerRepository.ListForUpdate(ctx, tenantID, productID)
}

type recordingBalances struct {
	repository.BalanceRepository
	rec *callRecorder
}

func (r *recordingBalances) GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	r.rec.calls = append(r.rec.calls, "balance-for-update")
	return r.BalanceRepository.GetForUpdate(ctx, tenantID, productID, locationID)
}

// El lock por producto debe tomarse antes de leer balance o capas: la fila de
// balance puede no existir todavía (primer movimiento) y Replace reemplaza
// las capas completas, así que los locks de fila solos no serializan a dos
// escritores concurrentes del mismo producto.
func TestAppendInTx_BloqueaElProductoAntesDeLeerLaProyeccion(t *testing.T) {
	e := newEnv(t)
	productID, locationID := e.seedCatalog(t, tenantA, "SKU-001")

	rec := &callRecorder{}
	repos := e.repos
	repos.Layers = &recordingLayers{ValuationLayerRepository: repos.Layers, rec: rec}
	repos.Balances = &recordingBalances{BalanceRepository: repos.Balances, rec: rec}

	_, err := e.uc.AppendInTx(context.Background(), repos, tenantA, ledger.AppendInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       entity.MovementTypeIN,
		RefType:    entity.RefTypePurchase,
		Quantity:   dec("5"),
		UnitCost:   decPtr("10"),
	}, time.Now())
	require.NoError(t, err)

	require.NotEmpty(t, rec.calls)
	assert.Equal(t, "lock-producto", rec.calls[0],
		"el lock por producto debe preceder a toda lectura de balance o capas")
	assert.Contains(t, rec.calls, "balance-for-update")
	assert.Contains(t, rec.calls, "capas-for-update")
}
