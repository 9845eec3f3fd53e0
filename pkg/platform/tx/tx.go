// Package tx carries a database transaction through context so stores can
// join an ambient transaction without widening their signatures.
package tx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a pgx transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a pgx transaction from context if present.
func From(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// Runner sequences a multi-store mutation. The Postgres runner wraps the
// callback in a real transaction; the in-memory runner just invokes it, which
// keeps write ordering but not atomicity — acceptable for tests and the
// single-process dev store.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxRunner runs callbacks inside a pgxpool transaction.
type PgxRunner struct {
	pool *pgxpool.Pool
}

func NewPgxRunner(pool *pgxpool.Pool) *PgxRunner {
	return &PgxRunner{pool: pool}
}

func (r *PgxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(t pgx.Tx) error {
		return fn(WithTx(ctx, t))
	})
}

// NopRunner executes the callback directly. Used with in-memory stores, where
// each store guards itself with a mutex and there is nothing to roll back.
type NopRunner struct{}

func (NopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
