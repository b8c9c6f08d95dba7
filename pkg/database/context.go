package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories rely on. It is
// satisfied by *pgxpool.Conn and by pgx.Tx, so the same repository code
// runs standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type contextKey string

// ConnScopeKey is the context key for storing the pinned database connection.
const ConnScopeKey contextKey = "connScope"

// GetConnScope retrieves the pinned database connection from context.
// Returns nil and false if not present.
func GetConnScope(ctx context.Context) (*ConnScope, bool) {
	scope, ok := ctx.Value(ConnScopeKey).(*ConnScope)
	return scope, ok
}

// SetConnScope stores the pinned database connection in context.
func SetConnScope(ctx context.Context, scope *ConnScope) context.Context {
	return context.WithValue(ctx, ConnScopeKey, scope)
}

// WithinTransaction runs fn inside a transaction started on the scope in ctx.
// The context passed to fn carries a scope whose Querier is the transaction,
// so every repository call inside fn joins it. Any error from fn rolls the
// whole transaction back.
func WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	scope, ok := GetConnScope(ctx)
	if !ok {
		return fmt.Errorf("no connection scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	txCtx := SetConnScope(ctx, &ConnScope{Conn: tx})
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
