package registry

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// NotFoundError reports an export or projection request for an unknown
// community key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("community not found: %s", e.Key)
}

// ReferenceError reports a dangling cross-reference inside a bundle. Under
// the strict policy it fails the whole import; under the lenient policy it is
// downgraded to a warning and the referencing record is skipped.
type ReferenceError struct {
	Kind  string
	Key   string
	Field string
	Ref   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s: unknown %s %s", e.Kind, e.Key, e.Field, e.Ref)
}

// warning renders the lenient-policy warning entry for a skipped record.
func (e *ReferenceError) warning() string {
	return e.Error() + "; skipped"
}

// ConstraintViolationError reports a uniqueness or foreign-key violation
// detected by the store at commit time. The transaction has been rolled back
// when this surfaces.
type ConstraintViolationError struct {
	Constraint string
	err        error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation (%s): %v", e.Constraint, e.err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.err
}

// mapStoreError converts pgx constraint failures into the typed taxonomy and
// leaves everything else wrapped as-is.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503": // unique_violation, foreign_key_violation
			return &ConstraintViolationError{Constraint: pgErr.ConstraintName, err: err}
		}
	}
	return err
}
