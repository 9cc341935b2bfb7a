package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// storeError marks server-side connection, resource-exhaustion and shutdown
// failures (SQLSTATE classes 08, 53, 57) as driver.ErrBadConn so callers can
// treat them as a lost connection. Everything else passes through unchanged.
func storeError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return fmt.Errorf("%w: %v", driver.ErrBadConn, pqErr)
		}
	}
	return err
}

// uniqueViolationConstraint returns the constraint or index name behind a
// unique violation, or "" for any other error.
func uniqueViolationConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint
	}
	return ""
}
