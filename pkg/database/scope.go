package database

import (
	"context"
)

// ConnScope pins one pooled connection for the duration of a request so
// that repository reads and the rebuild transaction observe the same
// connection state.
type ConnScope struct {
	Conn Querier
}

// Close releases the underlying connection back to the pool.
func (s *ConnScope) Close() {
	if s.Conn == nil {
		return
	}
	if conn, ok := s.Conn.(releaser); ok {
		conn.Release()
	}
}

type releaser interface {
	Release()
}

// Acquire pins one connection from the pool in a ConnScope.
// The returned scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*ConnScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &ConnScope{Conn: conn}, nil
}
