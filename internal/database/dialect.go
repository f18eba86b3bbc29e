package database

import "fmt"

// Dialect carries the few statements that differ between supported stores.
type Dialect struct {
	Name string
	// DriverName is the database/sql driver registered for this dialect.
	DriverName string
	// ConnPragmas run on every connection handed to a request.
	ConnPragmas []string
	// Schema creates the four clinic tables when they are missing.
	Schema []string
	// NowText is a SQL expression for the current UTC instant formatted like
	// stored timestamps, so string comparison follows time order.
	NowText string
	// TimestampText wraps a timestamp column for comparison with NowText.
	TimestampText func(col string) string
}

// IndexStatements are idempotent and identical across dialects.
var IndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_appt_start    ON appointments(start_ts)`,
	`CREATE INDEX IF NOT EXISTS idx_appt_provider ON appointments(provider_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appt_patient  ON appointments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appt_status   ON appointments(status)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_appt  ON invoices(appt_id)`,
}

var SQLite = Dialect{
	Name:        "sqlite3",
	DriverName:  "sqlite3",
	ConnPragmas: []string{`PRAGMA foreign_keys = ON`},
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS providers (
			provider_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			specialty   TEXT,
			room        TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			appt_id     INTEGER PRIMARY KEY AUTOINCREMENT,
			patient_id  INTEGER NOT NULL REFERENCES users(user_id),
			provider_id INTEGER NOT NULL REFERENCES providers(provider_id),
			start_ts    TEXT NOT NULL,
			end_ts      TEXT NOT NULL,
			status      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			inv_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			appt_id  INTEGER REFERENCES appointments(appt_id),
			subtotal REAL NOT NULL DEFAULT 0,
			discount REAL NOT NULL DEFAULT 0,
			tax      REAL NOT NULL DEFAULT 0,
			total    REAL NOT NULL DEFAULT 0,
			status   TEXT NOT NULL
		)`,
	},
	NowText:       `datetime('now')`,
	TimestampText: func(col string) string { return fmt.Sprintf("datetime(%s)", col) },
}

var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS providers (
			provider_id BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			specialty   TEXT,
			room        TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			appt_id     BIGSERIAL PRIMARY KEY,
			patient_id  BIGINT NOT NULL REFERENCES users(user_id),
			provider_id BIGINT NOT NULL REFERENCES providers(provider_id),
			start_ts    TEXT NOT NULL,
			end_ts      TEXT NOT NULL,
			status      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			inv_id   BIGSERIAL PRIMARY KEY,
			appt_id  BIGINT REFERENCES appointments(appt_id),
			subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount DOUBLE PRECISION NOT NULL DEFAULT 0,
			tax      DOUBLE PRECISION NOT NULL DEFAULT 0,
			total    DOUBLE PRECISION NOT NULL DEFAULT 0,
			status   TEXT NOT NULL
		)`,
	},
	NowText:       `to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')`,
	TimestampText: func(col string) string { return col },
}

// DialectFor resolves a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}
