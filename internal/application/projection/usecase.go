package projection

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
)

// UseCase proyector de balances: lectura materializada, reconstrucción a una
// fecha pasada (auditoría) y rebuild completo desde el kardex. El rebuild debe
// producir exactamente el mismo estado que la proyección incremental.
type UseCase struct {
	txRunner     ledger.TxRunner
	ledgerUC     *ledger.UseCase
	movementRepo repository.MovementRepository
	balanceRepo  repository.BalanceRepository
}

// NewUseCase construye el proyector.
func NewUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.UseCase,
	movementRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		ledgerUC:     ledgerUC,
		movementRepo: movementRepo,
		balanceRepo:  balanceRepo,
	}
}

// GetBalance devuelve el balance. asOf nil = fila materializada (rápido);
// asOf pasado = replay de movimientos hasta ese instante (lento, auditoría).
func (uc *UseCase) GetBalance(ctx context.Context, tenantID, productID, locationID string, asOf *time.Time) (*entity.Balance, error) {
	if tenantID == "" || productID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if asOf == nil {
		b, err := uc.balanceRepo.Get(ctx, tenantID, productID, locationID)
		if err != nil {
			return nil, err
		}
		if b.TenantID != "" && b.TenantID != tenantID {
			return nil, domain.ErrTenantIsolation
		}
		return b, nil
	}

	movs, err := uc.movementRepo.ListForReplay(ctx, tenantID, productID, locationID, asOf)
	if err != nil {
		return nil, err
	}
	return replayBalance(tenantID, productID, locationID, movs), nil
}

// ListBalances lista la proyección completa del tenant (reporting).
func (uc *UseCase) ListBalances(ctx context.Context, tenantID string) ([]*entity.Balance, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.balanceRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		if b.TenantID != tenantID {
			return nil, domain.ErrTenantIsolation
		}
	}
	return list, nil
}

// Rebuild reconstruye balance y capas desde toda la historia del kardex, en
// una sola transacción. El balance se deriva de los movimientos del
// (producto, ubicación); las capas, de la historia completa del producto
// (las capas son por producto, no por ubicación).
func (uc *UseCase) Rebuild(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	if tenantID == "" || productID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	var rebuilt *entity.Balance
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		// Bloquear el producto para que ningún append concurra con el replay
		if err := r.Layers.LockProduct(ctx, tenantID, productID); err != nil {
			return err
		}
		movs, err := r.Movements.ListForReplay(ctx, tenantID, productID, locationID, nil)
		if err != nil {
			return err
		}
		b := replayBalance(tenantID, productID, locationID, movs)
		b.UpdatedAt = time.Now()
		if err := r.Balances.Upsert(ctx, b); err != nil {
			return err
		}

		settings, err := uc.ledgerUC.SettingsInTx(ctx, r, tenantID)
		if err != nil {
			return err
		}
		strategy, err := valuation.ForMethod(settings.ValuationMethod)
		if err != nil {
			return err
		}
		if _, err := r.Layers.ListForUpdate(ctx, tenantID, productID); err != nil {
			return err
		}
		productMovs, err := r.Movements.ListByProduct(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		layers, err := replayLayers(strategy, productMovs)
		if err != nil {
			return err
		}
		if err := r.Layers.Replace(ctx, tenantID, productID, layers); err != nil {
			return err
		}
		rebuilt = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rebuilt, nil
}

// replayBalance suma las cantidades firmadas en orden de ledger_seq.
func replayBalance(tenantID, productID, locationID string, movs []*entity.Movement) *entity.Balance {
	qty := decimal.Zero
	var lastSeq int64
	for _, m := range movs {
		qty = qty.Add(m.Quantity)
		lastSeq = m.LedgerSeq
	}
	return &entity.Balance{
		TenantID:       tenantID,
		ProductID:      productID,
		LocationID:     locationID,
		Quantity:       qty,
		LastAppliedSeq: lastSeq,
	}
}

// replayLayers reconstruye las capas re-aplicando cada movimiento en orden:
// entradas con su costo registrado, salidas consumiendo según la estrategia.
func replayLayers(strategy valuation.Strategy, movs []*entity.Movement) ([]entity.ValuationLayer, error) {
	var layers []entity.ValuationLayer
	for _, m := range movs {
		if m.Quantity.IsPositive() {
			layers = strategy.Add(layers, m.Quantity, m.UnitCost)
			continue
		}
		_, rest, err := strategy.Consume(layers, m.Quantity.Neg())
		if err != nil {
			return nil, err
		}
		layers = rest
	}
	return layers, nil
}
