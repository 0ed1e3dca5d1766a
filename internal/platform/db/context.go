package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// ConnKey carries a checked-out connection on the request context so a
// handler can run several repository calls on one connection (e.g. inside a
// transaction).
const ConnKey contextKey = "db_conn"

// WithConn returns a context carrying the given connection.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, ConnKey, conn)
}

// ConnFromContext retrieves the scoped database connection from the context,
// or nil when the caller should fall back to the shared pool.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(ConnKey).(*pgxpool.Conn)
	return conn
}
