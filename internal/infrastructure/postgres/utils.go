package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/Kardex-api/internal/domain"
)

// Códigos de error de PostgreSQL que el dominio traduce.
const (
	codeUniqueViolation = "23505"
	codeLockNotAvail    = "55P03" // lock_timeout vencido en SELECT FOR UPDATE
)

// isUniqueViolation verifica si un error es una violación de constraint único.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// isLockTimeout verifica si la fila estaba bloqueada más allá del lock_timeout.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeLockNotAvail
}

// mapError traduce errores de PostgreSQL a errores del dominio. La contención
// de locks sale como ErrBusy para que el caller reintente en vez de colgarse.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isLockTimeout(err):
		return domain.ErrBusy
	}
	return err
}
