// Package sqlstore implements the repository interfaces with sqlx. Queries
// use ? placeholders and are rebound for the active driver.
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/pkg/errors"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *database.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. m may be nil.
func NewBaseRepository(db *database.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// querier resolves the request-scoped connection, or the pool outside a
// request.
func (r *BaseRepository) querier(ctx context.Context) (database.Querier, error) {
	return r.db.QuerierFrom(ctx)
}

func (r *BaseRepository) get(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	q, err := r.querier(ctx)
	if err == nil {
		err = sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
	}
	r.metrics.DBOperation(op, ignoreNoRows(err))
	return err
}

func (r *BaseRepository) selectAll(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	q, err := r.querier(ctx)
	if err == nil {
		err = sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
	}
	r.metrics.DBOperation(op, err)
	return err
}

// exec runs a single auto-committed statement and returns rows affected.
func (r *BaseRepository) exec(ctx context.Context, op string, query string, args ...interface{}) (int64, error) {
	q, err := r.querier(ctx)
	if err != nil {
		r.metrics.DBOperation(op, err)
		return 0, err
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	r.metrics.DBOperation(op, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type txStarter interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// inTx runs fn in a transaction on the request connection, committing when
// fn succeeds.
func (r *BaseRepository) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) (err error) {
	defer func() { r.metrics.DBOperation(op, err) }()

	q, err := r.querier(ctx)
	if err != nil {
		return err
	}
	starter, ok := q.(txStarter)
	if !ok {
		return fmt.Errorf("%T cannot start a transaction", q)
	}
	tx, err := starter.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *BaseRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	err := r.get(ctx, table+".count", &n, `SELECT COUNT(*) FROM `+table)
	return n, err
}

func ignoreNoRows(err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func notFoundOr(err error, resource string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFound(resource, err)
	}
	return err
}

// Store groups every repository over one database.
type Store struct {
	Users        *UserRepository
	Providers    *ProviderRepository
	Appointments *AppointmentRepository
	Invoices     *InvoiceRepository
	Reports      *ReportRepository
}

func NewStore(db *database.DB, m *metrics.Metrics) *Store {
	base := NewBaseRepository(db, m)
	return &Store{
		Users:        &UserRepository{base},
		Providers:    &ProviderRepository{base},
		Appointments: &AppointmentRepository{base},
		Invoices:     &InvoiceRepository{base},
		Reports:      &ReportRepository{BaseRepository: base, dialect: db.Dialect},
	}
}
