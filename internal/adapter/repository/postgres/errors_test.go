package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/walletledger/internal/domain"
)

func TestMapError(t *testing.T) {
	plain := errors.New("syntax error")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"lock timeout", &pgconn.PgError{Code: pgErrLockNotAvailable}, domain.ErrTimeout},
		{"statement cancelled", &pgconn.PgError{Code: pgErrQueryCanceled}, domain.ErrTimeout},
		{"context deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), domain.ErrTimeout},
		{"connection failure", &pgconn.PgError{Code: "08006"}, domain.ErrStorageUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: pgErrAdminShutdown}, domain.ErrStorageUnavailable},
		{"too many connections", &pgconn.PgError{Code: pgErrTooManyConnections}, domain.ErrStorageUnavailable},
		{"unexpected eof", io.ErrUnexpectedEOF, domain.ErrStorageUnavailable},
		{"unrelated", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if mapError(nil) != nil {
		t.Fatal("nil must map to nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgErrUniqueViolation})) {
		t.Fatal("expected wrapped unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: pgErrDeadlock}) {
		t.Fatal("deadlock is not a unique violation")
	}
}
