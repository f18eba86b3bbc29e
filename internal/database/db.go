package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jwalitptl/clinic-dashboard/internal/config"
)

// Querier is satisfied by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
type Querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	Rebind(query string) string
}

// DB is the process-wide handle. Requests never use it directly; they go
// through a Scope that pins a single connection for the request.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// NewDB opens the configured store, checks it is reachable and makes sure
// the secondary indexes exist.
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dialect.Name == SQLite.Name {
		dsn = sqliteDSN(cfg.Path)
	}

	conn, err := sqlx.ConnectContext(ctx, dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: conn, Dialect: dialect}
	if err := db.EnsureIndexes(ctx); err != nil {
		// tables may not exist yet; the seeder creates them
		if !isMissingTable(err) {
			conn.Close()
			return nil, err
		}
	}
	return db, nil
}

// Wrap adopts an already opened connection pool, used by tests.
func Wrap(conn *sqlx.DB, dialect Dialect) *DB {
	return &DB{DB: conn, Dialect: dialect}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// EnsureIndexes creates the five secondary indexes if they are missing.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range IndexStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
	}
	return nil
}

// EnsureSchema creates the clinic tables and indexes. Only the seeder and
// tests call it; the web server expects an existing database.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range db.Dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db.EnsureIndexes(ctx)
}

// MissingTables lists which of the required tables do not exist.
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	var missing []string
	for _, table := range []string{"users", "providers", "appointments", "invoices"} {
		var n int
		err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM `+table+` WHERE 1 = 0`))
		if err != nil {
			if isMissingTable(err) {
				missing = append(missing, table)
				continue
			}
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
	}
	return missing, nil
}

func isMissingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}
