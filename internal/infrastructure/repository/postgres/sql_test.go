package postgres

import (
	"database/sql"
	"errors"
	"testing"
)

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func TestPooledStatementErrorDetection(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		bindMismatch bool
		stmtMissing  bool
	}{
		{
			name:         "bind mismatch by message",
			err:          fakeErr(`pq: bind message supplies 2 parameters, but prepared statement "" requires 1 (08P01)`),
			bindMismatch: true,
		},
		{
			name:         "bind mismatch by sqlstate",
			err:          fakeErr("pq: protocol violation (08P01)"),
			bindMismatch: true,
		},
		{
			name:        "unnamed statement missing by message",
			err:         fakeErr("pq: unnamed prepared statement does not exist (26000)"),
			stmtMissing: true,
		},
		{
			name:        "statement missing by sqlstate",
			err:         fakeErr("pq: prepared statement missing (26000)"),
			stmtMissing: true,
		},
		{
			name: "unrelated error",
			err:  fakeErr("pq: relation team_aliases does not exist"),
		},
		{
			name: "nil error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBindParameterMismatch(tt.err); got != tt.bindMismatch {
				t.Fatalf("isBindParameterMismatch = %v, want %v", got, tt.bindMismatch)
			}
			if got := isUnnamedPreparedStatementMissing(tt.err); got != tt.stmtMissing {
				t.Fatalf("isUnnamedPreparedStatementMissing = %v, want %v", got, tt.stmtMissing)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatal("sql.ErrNoRows must classify as not found")
	}
	if isNotFound(errors.New("pq: connection refused")) {
		t.Fatal("arbitrary errors must not classify as not found")
	}
}
