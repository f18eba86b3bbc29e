// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
)

var seq atomic.Int64

// DSN returns a shared-cache in-memory DSN unique to the test.
func DSN(t testing.TB) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))
}

// Open returns an empty database with the clinic schema applied. It is
// closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", DSN(t))
	require.NoError(t, err)
	// the in-memory database lives only while a connection is open
	conn.SetMaxIdleConns(8)
	conn.SetConnMaxLifetime(0)

	db := database.Wrap(conn, database.SQLite)
	require.NoError(t, db.EnsureSchema(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })
	return db
}

// Fixture inserts rows directly, bypassing repositories.
type Fixture struct {
	t  testing.TB
	db *database.DB
}

func NewFixture(t testing.TB, db *database.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) insert(query string, args ...interface{}) int64 {
	f.t.Helper()
	var id int64
	err := f.db.QueryRowxContext(context.Background(), f.db.Rebind(query), args...).Scan(&id)
	require.NoError(f.t, err)
	return id
}

func (f *Fixture) User(name, email, hash string) int64 {
	return f.insert(`INSERT INTO users (name, email, password_hash, created_at)
		VALUES (?, ?, ?, '2025-01-01 00:00:00') RETURNING user_id`, name, email, hash)
}

func (f *Fixture) Provider(name, specialty, room string) int64 {
	return f.insert(`INSERT INTO providers (name, specialty, room) VALUES (?, ?, ?) RETURNING provider_id`,
		name, specialty, room)
}

func (f *Fixture) Appointment(patientID, providerID int64, start, end, status string) int64 {
	return f.insert(`INSERT INTO appointments (patient_id, provider_id, start_ts, end_ts, status)
		VALUES (?, ?, ?, ?, ?) RETURNING appt_id`, patientID, providerID, start, end, status)
}

func (f *Fixture) Invoice(apptID int64, total float64, status string) int64 {
	return f.insert(`INSERT INTO invoices (appt_id, subtotal, discount, tax, total, status)
		VALUES (?, ?, 0, 0, ?, ?) RETURNING inv_id`, apptID, total, total, status)
}

// Count returns the number of rows in table.
func (f *Fixture) Count(table string) int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}
