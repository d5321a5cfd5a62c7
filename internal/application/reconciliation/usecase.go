package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// UseCase conciliación de inventario físico contra el balance proyectado.
// Compare solo registra la variación; ApplyAdjustment la corrige con un
// ADJUST en el kardex, nunca editando balances directamente.
type UseCase struct {
	txRunner    ledger.TxRunner
	ledgerUC    *ledger.UseCase
	balanceRepo repository.BalanceRepository
	reconRepo   repository.ReconciliationRepository
}

// NewUseCase construye el servicio de conciliación.
func NewUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.UseCase,
	balanceRepo repository.BalanceRepository,
	reconRepo repository.ReconciliationRepository,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		ledgerUC:    ledgerUC,
		balanceRepo: balanceRepo,
		reconRepo:   reconRepo,
	}
}

// CompareInput conteo físico reportado para un (producto, ubicación).
type CompareInput struct {
	ProductID  string
	LocationID string
	CountedQty decimal.Decimal
	CreatedBy  string
}

// Compare contrasta el conteo físico con el balance esperado y deja el
// registro PENDING con la variación (contado menos esperado).
func (uc *UseCase) Compare(ctx context.Context, tenantID string, in CompareInput) (*entity.ReconciliationRecord, error) {
	if tenantID == "" || in.ProductID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.CountedQty.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	balance, err := uc.balanceRepo.Get(ctx, tenantID, in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}
	record := &entity.ReconciliationRecord{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ProductID:   in.ProductID,
		LocationID:  in.LocationID,
		ExpectedQty: balance.Quantity,
		CountedQty:  in.CountedQty,
		Variance:    in.CountedQty.Sub(balance.Quantity),
		Status:      entity.ReconciliationPending,
		CreatedAt:   time.Now(),
		CreatedBy:   in.CreatedBy,
	}
	if err := uc.reconRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get registro de conciliación por id.
func (uc *UseCase) Get(ctx context.Context, tenantID, recordID string) (*entity.ReconciliationRecord, error) {
	if tenantID == "" || recordID == "" {
		return nil, domain.ErrInvalidInput
	}
	record, err := uc.reconRepo.GetByID(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	if record.TenantID != tenantID {
		return nil, domain.ErrTenantIsolation
	}
	return record, nil
}

// ApplyAdjustment corrige la variación de un registro PENDING asentando un
// ADJUST por la diferencia. Idempotente: el registro pasa a APPLIED en la
// misma transacción y un segundo intento devuelve ErrConflict.
func (uc *UseCase) ApplyAdjustment(ctx context.Context, tenantID, recordID, requestedBy string) (*entity.ReconciliationRecord, error) {
	if tenantID == "" || recordID == "" {
		return nil, domain.ErrInvalidInput
	}
	var applied *entity.ReconciliationRecord
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		record, err := r.Reconciliations.GetByID(ctx, tenantID, recordID)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if record.TenantID != tenantID {
			return domain.ErrTenantIsolation
		}
		if record.Status == entity.ReconciliationApplied {
			return domain.ErrConflict
		}

		var movementID string
		if !record.Variance.IsZero() {
			mov, err := uc.ledgerUC.AppendInTx(ctx, r, tenantID, ledger.AppendInput{
				ProductID:      record.ProductID,
				LocationID:     record.LocationID,
				Type:           entity.MovementTypeADJUST,
				RefType:        entity.RefTypeReconciliation,
				RefID:          record.ID,
				Quantity:       record.Variance,
				IdempotencyKey: "recon-" + record.ID,
				CreatedBy:      requestedBy,
			}, time.Now())
			if err != nil {
				return err
			}
			movementID = mov.ID
		}

		if err := r.Reconciliations.MarkApplied(ctx, tenantID, record.ID, movementID); err != nil {
			return err
		}
		now := time.Now()
		record.Status = entity.ReconciliationApplied
		record.ResultingMovementID = movementID
		record.AppliedAt = &now
		applied = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}
