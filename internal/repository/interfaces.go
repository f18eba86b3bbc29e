package repository

import (
	"context"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		GetByID(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context) ([]*model.User, error)
		Create(ctx context.Context, user *model.User) error
		UpdatePassword(ctx context.Context, email, hash string) (int64, error)
		Count(ctx context.Context) (int, error)
	}

	ProviderRepository interface {
		List(ctx context.Context) ([]*model.Provider, error)
		Create(ctx context.Context, provider *model.Provider) error
		Count(ctx context.Context) (int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appt *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, appt *model.Appointment) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.AppointmentView, error)
		Count(ctx context.Context) (int, error)
	}

	InvoiceRepository interface {
		Create(ctx context.Context, inv *model.Invoice) error
		Count(ctx context.Context) (int, error)
	}

	// ReportRepository runs the aggregation queries. Money values come back
	// unrounded; rounding happens once in the report service.
	ReportRepository interface {
		RevenueByDay(ctx context.Context, limit int) ([]DayTotal, error)
		InvoiceTotals(ctx context.Context) (sum float64, count int, err error)
		AppointmentCount(ctx context.Context) (int, error)
		NextAppointment(ctx context.Context) (*string, error)
		StatusCounts(ctx context.Context) ([]StatusCount, error)
		DailySummary(ctx context.Context, days int) ([]*model.DailySummary, error)
		ExportRows(ctx context.Context) ([]*ExportRow, error)
	}
)

type DayTotal struct {
	Day     string  `db:"day"`
	Revenue float64 `db:"revenue"`
}

type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"n"`
}

// ExportRow is one CSV line before formatting. Total is nil when the
// appointment has no invoice.
type ExportRow struct {
	ApptID   int64    `db:"appt_id"`
	Patient  string   `db:"patient"`
	Provider string   `db:"provider"`
	StartTS  string   `db:"start_ts"`
	EndTS    string   `db:"end_ts"`
	Status   string   `db:"status"`
	Total    *float64 `db:"total"`
}
