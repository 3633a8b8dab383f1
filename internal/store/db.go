package store

import (
	"context"
	"database/sql"
)

// Execer is satisfied by *sqlx.DB and *sqlx.Tx. Write methods take one so the
// caller decides whether the statement joins a transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Getter reads a single row. Lock methods take a Getter bound to the
// surrounding transaction.
type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is the pool-level handle each store reads through.
type DB interface {
	Execer
	Getter
	Selecter
}
