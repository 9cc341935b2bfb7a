package usecase

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrActivePoolExists = errors.New("an active pool already exists")
	ErrDuplicateFixture = errors.New("fixture already recorded")
	ErrPoolSettled      = errors.New("pool is already settled")
	ErrDeadlinePassed   = errors.New("prediction deadline has passed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr wraps a repository failure, promoting lost connections and
// timeouts to ErrStoreUnavailable so callers see a retryable condition
// instead of a generic internal failure.
func storeErr(op string, err error) error {
	if isStoreUnavailable(err) {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isStoreUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
