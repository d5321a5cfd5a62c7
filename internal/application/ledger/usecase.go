package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/internal/domain/valuation"
	"github.com/jhoicas/Kardex-api/pkg/fiscal"
)

// Defaults parámetros por defecto cuando el tenant no tiene fila de settings.
type Defaults struct {
	ValuationMethod    string
	AllowNegativeStock bool
	FYStartMonth       time.Month
}

// UseCase es el motor del kardex: registra movimientos inmutables y mantiene
// balance y capas de valoración en la misma unidad atómica que el append.
type UseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	movementRepo repository.MovementRepository
	layerRepo    repository.ValuationLayerRepository
	settingsRepo repository.SettingsRepository
	defaults     Defaults
}

// NewUseCase construye el motor. Los repos aquí son de solo lectura (pool);
// toda escritura pasa por el TxRunner.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	layerRepo repository.ValuationLayerRepository,
	settingsRepo repository.SettingsRepository,
	defaults Defaults,
) *UseCase {
	if defaults.ValuationMethod == "" {
		defaults.ValuationMethod = valuation.MethodFIFO
	}
	if defaults.FYStartMonth == 0 {
		defaults.FYStartMonth = time.April
	}
	return &UseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		layerRepo:    layerRepo,
		settingsRepo: settingsRepo,
		defaults:     defaults,
	}
}

// AppendInput entrada para registrar un movimiento.
// Quantity es firmada: IN exige positiva, OUT negativa, ADJUST distinta de cero.
// UnitCost es obligatorio en IN; en salidas el costo lo calculan las capas.
type AppendInput struct {
	ProductID      string
	LocationID     string
	Type           string
	RefType        string
	RefID          string
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	IdempotencyKey string
	CreatedBy      string
}

func (in AppendInput) validate() error {
	if in.ProductID == "" || in.LocationID == "" {
		return domain.ErrInvalidInput
	}
	// Coherencia tipo/signo: la define la entidad, no el caso de uso
	m := entity.Movement{Type: in.Type, Quantity: in.Quantity}
	if !m.SignConsistent() {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeIN:
		if in.UnitCost == nil || in.UnitCost.IsNegative() {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeADJUST:
		if in.UnitCost != nil && in.UnitCost.IsNegative() {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// Append valida catálogo fuera de la transacción, abre la tx y registra el
// movimiento junto con la proyección. Retry seguro: con la misma idempotency
// key devuelve el movimiento ya registrado sin aplicarlo dos veces.
func (uc *UseCase) Append(ctx context.Context, tenantID string, in AppendInput) (*entity.Movement, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := uc.validateCatalog(ctx, tenantID, in.ProductID, in.LocationID); err != nil {
		return nil, err
	}

	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		m, err := uc.AppendInTx(ctx, r, tenantID, in, time.Now())
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// AppendInTx registra el movimiento usando los repos de la transacción del
// caller (finalización de documentos, conciliación). Bloquea la fila de
// balance y las capas del producto, aplica la política de stock negativo y
// actualiza la proyección con el ledger_seq asignado.
func (uc *UseCase) AppendInTx(ctx context.Context, r Repos, tenantID string, in AppendInput, now time.Time) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Sección crítica por producto: el lock debe tomarse antes de leer
	// balance o capas (la fila de balance puede no existir todavía y las
	// capas se reemplazan completas). También cubre el chequeo de
	// idempotencia: dos retries concurrentes con la misma clave se
	// serializan y el perdedor ve el movimiento ya confirmado.
	if err := r.Layers.LockProduct(ctx, tenantID, in.ProductID); err != nil {
		return nil, err
	}

	// Retry seguro dentro del mismo tenant
	if in.IdempotencyKey != "" {
		prev, err := r.Movements.GetByIdempotencyKey(ctx, tenantID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			if prev.TenantID != tenantID {
				return nil, domain.ErrTenantIsolation
			}
			return prev, nil
		}
	}

	settings, err := uc.SettingsInTx(ctx, r, tenantID)
	if err != nil {
		return nil, err
	}

	balance, err := r.Balances.GetForUpdate(ctx, tenantID, in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}
	newQty := balance.Quantity.Add(in.Quantity)
	if newQty.IsNegative() && !settings.AllowNegativeStock {
		return nil, domain.ErrInsufficientStock
	}

	strategy, err := valuation.ForMethod(settings.ValuationMethod)
	if err != nil {
		return nil, err
	}
	layers, err := r.Layers.ListForUpdate(ctx, tenantID, in.ProductID)
	if err != nil {
		return nil, err
	}

	var unitCost, totalCost decimal.Decimal
	if in.Quantity.IsPositive() {
		if in.UnitCost != nil {
			unitCost = *in.UnitCost
		} else {
			// Ajuste positivo sin costo: entra al costo promedio vigente
			unitCost = valuation.AverageCost(layers)
		}
		layers = strategy.Add(layers, in.Quantity, unitCost)
		totalCost = in.Quantity.Mul(unitCost)
	} else {
		consumed := in.Quantity.Neg()
		cost, rest, err := strategy.Consume(layers, consumed)
		if err != nil {
			return nil, err
		}
		layers = rest
		unitCost = cost.Div(consumed)
		totalCost = cost.Neg()
	}
	if err := r.Layers.Replace(ctx, tenantID, in.ProductID, layers); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Quantity:       in.Quantity,
		Type:           in.Type,
		RefType:        in.RefType,
		RefID:          in.RefID,
		IdempotencyKey: in.IdempotencyKey,
		UnitCost:       unitCost,
		TotalCost:      totalCost,
		CreatedAt:      now,
		CreatedBy:      in.CreatedBy,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	balance.TenantID = tenantID
	balance.ProductID = in.ProductID
	balance.LocationID = in.LocationID
	balance.Quantity = newQty
	balance.LastAppliedSeq = mov.LedgerSeq
	balance.UpdatedAt = now
	if err := r.Balances.Upsert(ctx, balance); err != nil {
		return nil, err
	}
	return mov, nil
}

// ListFilter filtros de lectura del kardex expuestos a reporting.
type ListFilter struct {
	ProductID     string
	LocationID    string
	From          *time.Time
	To            *time.Time
	FinancialYear string // etiqueta, ej. "2025-26"; tiene prioridad sobre From/To
	Limit         int
	Offset        int
}

// List lee movimientos ordenados por ledger_seq (secuencia finita y
// reiniciable vía Offset). Reporting nunca escribe estado del motor.
func (uc *UseCase) List(ctx context.Context, tenantID string, f ListFilter) ([]*entity.Movement, error) {
	if tenantID == "" || f.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	filter := repository.MovementFilter{
		ProductID:  f.ProductID,
		LocationID: f.LocationID,
		From:       f.From,
		To:         f.To,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
	if f.FinancialYear != "" {
		from, to, err := fiscal.LabelRange(f.FinancialYear, uc.defaults.FYStartMonth)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		filter.From, filter.To = &from, &to
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	movs, err := uc.movementRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	for _, m := range movs {
		if m.TenantID != tenantID {
			return nil, domain.ErrTenantIsolation
		}
	}
	return movs, nil
}

// Layers snapshot de capas de valoración para reporting (solo lectura).
func (uc *UseCase) Layers(ctx context.Context, tenantID, productID string) ([]entity.ValuationLayer, error) {
	if tenantID == "" || productID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.layerRepo.List(ctx, tenantID, productID)
}

// Settings parámetros efectivos del tenant (defaults si no hay fila).
func (uc *UseCase) Settings(ctx context.Context, tenantID string) (*entity.TenantSettings, error) {
	s, err := uc.settingsRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entity.TenantSettings{
			TenantID:           tenantID,
			ValuationMethod:    uc.defaults.ValuationMethod,
			AllowNegativeStock: uc.defaults.AllowNegativeStock,
		}
	}
	return s, nil
}

// SettingsInTx igual que Settings pero sobre los repos de la transacción.
func (uc *UseCase) SettingsInTx(ctx context.Context, r Repos, tenantID string) (*entity.TenantSettings, error) {
	s, err := r.Settings.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entity.TenantSettings{
			TenantID:           tenantID,
			ValuationMethod:    uc.defaults.ValuationMethod,
			AllowNegativeStock: uc.defaults.AllowNegativeStock,
		}
	}
	return s, nil
}

// MigrateValuation migración administrativa de método de valoración:
// re-siembra las capas de cada producto desde su estado actual (conservando
// cantidad y valor) y registra el momento del cambio. Una sola transacción.
func (uc *UseCase) MigrateValuation(ctx context.Context, tenantID, newMethod string) error {
	if tenantID == "" || !valuation.ValidMethod(newMethod) {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.Run(ctx, func(r Repos) error {
		settings, err := uc.SettingsInTx(ctx, r, tenantID)
		if err != nil {
			return err
		}
		if settings.ValuationMethod == newMethod {
			return domain.ErrConflict
		}
		products, err := r.Layers.ListProductsWithLayers(ctx, tenantID)
		if err != nil {
			return err
		}
		for _, productID := range products {
			if err := r.Layers.LockProduct(ctx, tenantID, productID); err != nil {
				return err
			}
			layers, err := r.Layers.ListForUpdate(ctx, tenantID, productID)
			if err != nil {
				return err
			}
			if err := r.Layers.Replace(ctx, tenantID, productID, valuation.Reseed(layers)); err != nil {
				return err
			}
		}
		now := time.Now()
		settings.ValuationMethod = newMethod
		settings.MethodSwitchedAt = &now
		settings.UpdatedAt = now
		return r.Settings.Upsert(ctx, settings)
	})
}

// FYStartMonth mes de inicio del año fiscal configurado.
func (uc *UseCase) FYStartMonth() time.Month {
	return uc.defaults.FYStartMonth
}

// validateCatalog confirma producto activo y ubicación del tenant (lecturas
// sin bloqueo, fuera de la sección crítica).
func (uc *UseCase) validateCatalog(ctx context.Context, tenantID, productID, locationID string) error {
	product, err := uc.productRepo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if product.TenantID != tenantID {
		return domain.ErrTenantIsolation
	}
	if !product.IsActive {
		return domain.ErrConflict
	}
	location, err := uc.locationRepo.GetByID(ctx, tenantID, locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return domain.ErrNotFound
	}
	if location.TenantID != tenantID {
		return domain.ErrTenantIsolation
	}
	return nil
}
