package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("repo: duplicate key")

const pgUniqueViolation = "23505"

// translate maps driver errors onto repo sentinels; anything else passes through.
func translate(err error) error {
	var pge *pgconn.PgError
	if errors.As(err, &pge) && pge.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pge.ConstraintName)
	}
	return err
}
