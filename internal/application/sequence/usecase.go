package sequence

import (
	"context"
	"math"
	"time"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/fiscal"
)

// maxValue margen de seguridad antes del desborde del contador int64.
const maxValue = math.MaxInt64 - 1

// UseCase asignador de consecutivos únicos y sin huecos por (tenant, scope).
// Política reserva-al-commit: cuando la asignación ocurre dentro de la
// transacción de un documento, un rollback devuelve el número sin consumirlo,
// de modo que la secuencia emitida no tiene huecos.
type UseCase struct {
	seqRepo      repository.SequenceRepository
	start        int64
	fyStartMonth time.Month
}

// NewUseCase construye el asignador. start es el primer valor emitido por
// scope nuevo (configurable, típicamente 1).
func NewUseCase(seqRepo repository.SequenceRepository, start int64, fyStartMonth time.Month) *UseCase {
	if start <= 0 {
		start = 1
	}
	if fyStartMonth == 0 {
		fyStartMonth = time.April
	}
	return &UseCase{seqRepo: seqRepo, start: start, fyStartMonth: fyStartMonth}
}

// Allocate asigna el siguiente consecutivo del scope en una transacción
// propia (numeración manual). El scope se inicializa perezosamente una sola
// vez, guardado por constraint de unicidad.
func (uc *UseCase) Allocate(ctx context.Context, tenantID, scopeKey string) (int64, error) {
	if tenantID == "" || scopeKey == "" {
		return 0, domain.ErrInvalidInput
	}
	return checkedNext(ctx, uc.seqRepo, tenantID, scopeKey, uc.start)
}

// AllocateInTx asigna el consecutivo sobre los repos de la transacción del
// caller: si la transacción aborta, el incremento se revierte (política a).
func (uc *UseCase) AllocateInTx(ctx context.Context, r ledger.Repos, tenantID, scopeKey string) (int64, error) {
	if tenantID == "" || scopeKey == "" {
		return 0, domain.ErrInvalidInput
	}
	return checkedNext(ctx, r.Sequences, tenantID, scopeKey, uc.start)
}

// Current último valor asignado del scope (0 si no existe).
func (uc *UseCase) Current(ctx context.Context, tenantID, scopeKey string) (int64, error) {
	if tenantID == "" || scopeKey == "" {
		return 0, domain.ErrInvalidInput
	}
	return uc.seqRepo.Current(ctx, tenantID, scopeKey)
}

// ScopeKey llave de scope para un prefijo y fecha: prefijo + año fiscal.
func (uc *UseCase) ScopeKey(prefix string, date time.Time) string {
	return fiscal.ScopeKey(prefix, date, uc.fyStartMonth)
}

func checkedNext(ctx context.Context, repo repository.SequenceRepository, tenantID, scopeKey string, start int64) (int64, error) {
	v, err := repo.Next(ctx, tenantID, scopeKey, start)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v >= maxValue {
		return 0, domain.ErrSequenceExhausted
	}
	return v, nil
}
