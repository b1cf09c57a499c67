// Package postgres holds the shared plumbing of the Postgres persistence
// backend: pool construction, migrations, and error classification helpers
// used by the repository subpackages.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
	CheckViolationCode      = "23514"
)

// NewPool opens a pgx pool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// WellFormedID reports whether s parses as a UUID. Ids and page keys are
// opaque strings at the API boundary; one that does not parse can never
// match a uuid column and must read as absent, not reach the parameter
// codec and fail the whole query.
func WellFormedID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// AsPgError unwraps err into a *pgconn.PgError when it carries one.
func AsPgError(err error) (*pgconn.PgError, bool) {
	pe := (*pgconn.PgError)(nil)
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsConstraintViolation reports whether err is a violation of the named
// constraint with the given SQLSTATE code.
func IsConstraintViolation(err error, code, constraint string) bool {
	pe, ok := AsPgError(err)
	return ok && pe.Code == code && pe.ConstraintName == constraint
}
