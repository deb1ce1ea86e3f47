package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// ConstraintError reports an insert rejected by an integrity constraint,
// typically a duplicate point id when loading into a non-empty database.
type ConstraintError struct {
	Table      string
	PointID    int64
	Code       string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("store: %s row for point %d violates constraint %q (SQLSTATE %s): %v",
		e.Table, e.PointID, e.Constraint, e.Code, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsConstraintViolation returns true if err (or any error in its chain) is an
// integrity constraint violation (SQLSTATE class 23)
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}

// classify turns a failed insert into a ConstraintError or a wrapped write error
func classify(err error, table string, pointID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &ConstraintError{
			Table:      table,
			PointID:    pointID,
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}
	return eris.Wrapf(err, "store: insert into %s for point %d", table, pointID)
}
