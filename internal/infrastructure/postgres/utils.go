package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation: otra corrida ya insertó la fila del ticket.
func isUniqueViolation(err error) bool {
	return err != nil && pgCode(err) == codeUniqueViolation
}

// isLockNotAvailable: FOR UPDATE NOWAIT encontró la fila bloqueada por otro reintento.
func isLockNotAvailable(err error) bool {
	return err != nil && pgCode(err) == codeLockNotAvailable
}
