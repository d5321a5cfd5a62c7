package ledger

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// Repos repositorios atados a la transacción en curso. El TxRunner los
// construye sobre la misma tx para garantizar que asiento, balance, capas,
// consecutivo y documento se confirmen o reviertan como una sola unidad.
type Repos struct {
	Movements       repository.MovementRepository
	Balances        repository.BalanceRepository
	Layers          repository.ValuationLayerRepository
	Sequences       repository.SequenceRepository
	Documents       repository.DocumentRepository
	Reconciliations repository.ReconciliationRepository
	Settings        repository.SettingsRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repos atados a esa
// tx; Commit si fn retorna nil, Rollback en caso contrario.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
