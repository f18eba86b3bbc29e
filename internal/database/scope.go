package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

type scopeKey struct{}

// Scope pins one pooled connection to a single request. The connection is
// taken on first use and returned by Release.
type Scope struct {
	db *DB

	mu     sync.Mutex
	conn   *sqlx.Conn
	closed bool

	// OnAcquire and OnRelease are optional hooks used for metrics.
	OnAcquire func()
	OnRelease func()
}

func NewScope(db *DB) *Scope {
	return &Scope{db: db}
}

// Conn returns the request's connection, acquiring it and applying the
// dialect pragmas on the first call.
func (s *Scope) Conn(ctx context.Context) (*sqlx.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("database scope already released")
	}
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	for _, pragma := range s.db.Dialect.ConnPragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s.conn = conn
	if s.OnAcquire != nil {
		s.OnAcquire()
	}
	return conn, nil
}

// Acquired reports whether the scope currently holds a connection.
func (s *Scope) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Release returns the connection to the pool. It is safe to call more than
// once and on a scope that never acquired anything.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if s.OnRelease != nil {
		s.OnRelease()
	}
	return err
}

func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// QuerierFrom returns the request connection when ctx carries a scope and
// the shared pool otherwise (CLI tools, tests, background work).
func (db *DB) QuerierFrom(ctx context.Context) (Querier, error) {
	if s, ok := ScopeFrom(ctx); ok {
		conn, err := s.Conn(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return db.DB, nil
}
