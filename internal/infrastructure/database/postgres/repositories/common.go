// Package repositories implements the Postgres-backed persistence contracts
// of the domain packages.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier abstracts pgxpool.Pool and pgx.Tx so repositories run inside or
// outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txBeginner is satisfied by pgxpool.Pool but not pgx.Tx; batch operations
// open their own transaction only when the querier can start one.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func beginner(q querier) (txBeginner, bool) {
	b, ok := q.(txBeginner)
	return b, ok
}
