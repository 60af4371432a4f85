package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmhodges/clock"
)

var clk = clock.New()

// PgxIface is the slice of the pgx pool the queries need. Tests supply a
// pgxmock pool instead.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Database struct {
	pool PgxIface
}

// NewDatabase connects to Postgres. The connection string should look like
// postgresql://localhost:5432/zentask?user=admn&password=passwd
func NewDatabase(ctx context.Context, connStr string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Database{pool: pool}, nil
}

// NewDatabaseWithPool wires an existing pool; used by tests.
func NewDatabaseWithPool(pool PgxIface) *Database {
	return &Database{pool: pool}
}

func (d *Database) Close() {
	d.pool.Close()
}
