package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/reconciliation"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
)

const testTenant = "tenant-a"

type testEnv struct {
	store    *memory.Store
	repos    ledger.Repos
	ledgerUC *ledger.UseCase
	uc       *reconciliation.UseCase

	productID  string
	locationID string
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newEnv arma el servicio con un producto sembrado con el stock indicado.
func newEnv(t *testing.T, stockQty string) *testEnv {
	t.Helper()
	ctx := context.Background()
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
	uc := reconciliation.NewUseCase(txRunner, ledgerUC, repos.Balances, repos.Reconciliations)

	p := &entity.Product{TenantID: testTenant, SKU: "SKU-001", Name: "Producto", IsActive: true}
	require.NoError(t, products.Create(ctx, p))
	l := &entity.Location{TenantID: testTenant, Code: "BOD-1", Name: "Bodega", IsActive: true}
	require.NoError(t, locations.Create(ctx, l))

	if stockQty != "0" {
		cost := dec("10")
		_, err := ledgerUC.Append(ctx, testTenant, ledger.AppendInput{
			ProductID:  p.ID,
			LocationID: l.ID,
			Type:       entity.MovementTypeIN,
			RefType:    entity.RefTypePurchase,
			Quantity:   dec(stockQty),
			UnitCost:   &cost,
		})
		require.NoError(t, err)
	}
	return &testEnv{
		store: store, repos: repos, ledgerUC: ledgerUC, uc: uc,
		productID: p.ID, locationID: l.ID,
	}
}

func (e *testEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := e.repos.Balances.Get(context.Background(), testTenant, e.productID, e.locationID)
	require.NoError(t, err)
	return b.Quantity
}

func TestCompare_RegistraLaVariacion(t *testing.T) {
	e := newEnv(t, "42")
	record, err := e.uc.Compare(context.Background(), testTenant, reconciliation.CompareInput{
		ProductID:  e.productID,
		LocationID: e.locationID,
		CountedQty: dec("40"),
		CreatedBy:  "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ReconciliationPending, record.Status)
	assert.True(t, dec("42").Equal(record.ExpectedQty))
	assert.True(t, dec("40").Equal(record.CountedQty))
	assert.True(t, dec("-2").Equal(record.Variance), "variación = contado - esperado")

	// Comparar no toca el kardex ni el balance
	assert.True(t, dec("42").Equal(e.balance(t)))
}

func TestApply_FaltanteGeneraAjusteNegativo(t *testing.T) {
	e := newEnv(t, "42")
	ctx := context.Background()
	record, err := e.uc.Compare(ctx, testTenant, reconciliation.CompareInput{
		ProductID: e.productID, LocationID: e.locationID, CountedQty: dec("40"),
	})
	require.NoError(t, err)

	applied, err := e.uc.ApplyAdjustment(ctx, testTenant, record.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, entity.ReconciliationApplied, applied.Status)
	assert.NotEmpty(t, applied.ResultingMovementID)
	assert.NotNil(t, applied.AppliedAt)
	assert.True(t, dec("40").Equal(e.balance(t)), "el balance queda en el conteo físico")

	movs, err := e.ledgerUC.List(ctx, testTenant, ledger.ListFilter{ProductID: e.productID})
	require.NoError(t, err)
	last := movs[len(movs)-1]
	assert.Equal(t, entity.MovementTypeADJUST, last.Type)
	assert.Equal(t, entity.RefTypeReconciliation, last.RefType)
	assert.Equal(t, record.ID, last.RefID)
	assert.True(t, dec("-2").Equal(last.Quantity))
}

func TestApply_SobranteGeneraAjustePositivoAlPromedio(t *testing.T) {
	e := newEnv(t, "42")
	ctx := context.Background()
	record, err := e.uc.Compare(ctx, testTenant, reconciliation.CompareInput{
		ProductID: e.productID, LocationID: e.locationID, CountedQty: dec("45"),
	})
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(record.Variance))

	_, err = e.uc.ApplyAdjustment(ctx, testTenant, record.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, dec("45").Equal(e.balance(t)))

	movs, err := e.ledgerUC.List(ctx, testTenant, ledger.ListFilter{ProductID: e.productID})
	require.NoError(t, err)
	last := movs[len(movs)-1]
	assert.True(t, dec("10").Equal(last.UnitCost), "el sobrante entra al costo promedio vigente")
}

func TestApply_DobleAplicacionEsConflicto(t *testing.T) {
	e := newEnv(t, "42")
	ctx := context.Background()
	record, err := e.uc.Compare(ctx, testTenant, reconciliation.CompareInput{
		ProductID: e.productID, LocationID: e.locationID, CountedQty: dec("40"),
	})
	require.NoError(t, err)

	_, err = e.uc.ApplyAdjustment(ctx, testTenant, record.ID, "user-1")
	require.NoError(t, err)
	_, err = e.uc.ApplyAdjustment(ctx, testTenant, record.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.True(t, dec("40").Equal(e.balance(t)), "el ajuste se aplica exactamente una vez")
}

func TestApply_VarianzaCeroNoGeneraMovimiento(t *testing.T) {
	e := newEnv(t, "42")
	ctx := context.Background()
	record, err := e.uc.Compare(ctx, testTenant, reconciliation.CompareInput{
		ProductID: e.productID, LocationID: e.locationID, CountedQty: dec("42"),
	})
	require.NoError(t, err)
	assert.True(t, record.Variance.IsZero())

	applied, err := e.uc.ApplyAdjustment(ctx, testTenant, record.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReconciliationApplied, applied.Status)
	assert.Empty(t, applied.ResultingMovementID, "sin variación no hay ajuste que asentar")

	movs, err := e.ledgerUC.List(ctx, testTenant, ledger.ListFilter{ProductID: e.productID})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo la entrada inicial")
}

func TestCompare_ConteoNegativoEsInvalido(t *testing.T) {
	e := newEnv(t, "42")
	_, err := e.uc.Compare(context.Background(), testTenant, reconciliation.CompareInput{
		ProductID: e.productID, LocationID: e.locationID, CountedQty: dec("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_RegistroInexistente(t *testing.T) {
	e := newEnv(t, "0")
	_, err := e.uc.Get(context.Background(), testTenant, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApply_RegistroInexistente(t *testing.T) {
	e := newEnv(t, "0")
	_, err := e.uc.ApplyAdjustment(context.Background(), testTenant, "no-existe", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
