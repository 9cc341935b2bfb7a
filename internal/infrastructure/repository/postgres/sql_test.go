package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("connection failure degrades to bad conn", func(t *testing.T) {
		err := storeError(&pq.Error{Code: "08006", Message: "connection failure"})
		if !errors.Is(err, driver.ErrBadConn) {
			t.Fatalf("expected driver.ErrBadConn, got %v", err)
		}
	})

	t.Run("admin shutdown degrades to bad conn", func(t *testing.T) {
		err := storeError(&pq.Error{Code: "57P01", Message: "terminating connection"})
		if !errors.Is(err, driver.ErrBadConn) {
			t.Fatalf("expected driver.ErrBadConn, got %v", err)
		}
	})

	t.Run("wrapped pq error is still classified", func(t *testing.T) {
		wrapped := fmt.Errorf("select: %w", &pq.Error{Code: "53300", Message: "too many connections"})
		if err := storeError(wrapped); !errors.Is(err, driver.ErrBadConn) {
			t.Fatalf("expected driver.ErrBadConn, got %v", err)
		}
	})

	t.Run("constraint violation passes through", func(t *testing.T) {
		in := &pq.Error{Code: "23505", Constraint: poolsSingleActiveIndex}
		if got := storeError(in); got != error(in) {
			t.Fatalf("expected error unchanged, got %v", got)
		}
	})

	t.Run("plain error passes through", func(t *testing.T) {
		in := errors.New("syntax error")
		if got := storeError(in); got != in {
			t.Fatalf("expected error unchanged, got %v", got)
		}
	})
}

func TestUniqueViolationConstraint(t *testing.T) {
	t.Parallel()

	if got := uniqueViolationConstraint(&pq.Error{Code: "23505", Constraint: poolsFixtureUnique}); got != poolsFixtureUnique {
		t.Fatalf("unexpected constraint: %q", got)
	}
	if got := uniqueViolationConstraint(&pq.Error{Code: "08006"}); got != "" {
		t.Fatalf("expected empty constraint for non-unique error, got %q", got)
	}
	if got := uniqueViolationConstraint(errors.New("boom")); got != "" {
		t.Fatalf("expected empty constraint for plain error, got %q", got)
	}
}
