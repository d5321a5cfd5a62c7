package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con todos
// los repos del motor atados a la misma tx. Es la única vía de escritura:
// asiento, balance, capas, consecutivo y documento se confirman o revierten
// como una sola unidad.
type TxRunner struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

// NewTxRunner construye el runner. lockTimeoutMS acota la espera por filas
// bloqueadas dentro de cada transacción; 0 desactiva el límite.
func NewTxRunner(pool *pgxpool.Pool, lockTimeoutMS int) *TxRunner {
	return &TxRunner{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. La contención de locks que exceda el lock_timeout sale
// traducida a domain.ErrBusy.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeoutMS > 0 {
		// SET LOCAL expira con la transacción
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeoutMS)); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	repos := ledger.Repos{
		Movements:       NewMovementRepository(tx),
		Balances:        NewBalanceRepository(tx),
		Layers:          NewValuationLayerRepository(tx),
		Sequences:       NewSequenceRepository(tx),
		Documents:       NewDocumentRepository(tx),
		Reconciliations: NewReconciliationRepository(tx),
		Settings:        NewSettingsRepository(tx),
	}
	if err := fn(repos); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
