package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
)

var _ repository.ReportRepository = (*ReportRepository)(nil)

// ReportRepository runs the dashboard aggregations. Days are the first ten
// characters of start_ts; no date parsing happens in SQL.
type ReportRepository struct {
	BaseRepository
	dialect database.Dialect
}

func (r *ReportRepository) RevenueByDay(ctx context.Context, limit int) ([]repository.DayTotal, error) {
	query := `
		SELECT substr(a.start_ts, 1, 10) AS day,
		       COALESCE(SUM(i.total), 0) AS revenue
		FROM appointments a
		LEFT JOIN invoices i ON i.appt_id = a.appt_id
		GROUP BY substr(a.start_ts, 1, 10)
		ORDER BY day
		LIMIT ?
	`
	var rows []repository.DayTotal
	if err := r.selectAll(ctx, "report.revenue_by_day", &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query revenue by day: %w", err)
	}
	return rows, nil
}

// InvoiceTotals returns the unrounded sum of invoice totals and the number
// of invoices.
func (r *ReportRepository) InvoiceTotals(ctx context.Context) (float64, int, error) {
	var row struct {
		Sum   float64 `db:"total"`
		Count int     `db:"n"`
	}
	query := `SELECT COALESCE(SUM(total), 0) AS total, COUNT(*) AS n FROM invoices`
	if err := r.get(ctx, "report.invoice_totals", &row, query); err != nil {
		return 0, 0, fmt.Errorf("failed to query invoice totals: %w", err)
	}
	return row.Sum, row.Count, nil
}

func (r *ReportRepository) AppointmentCount(ctx context.Context) (int, error) {
	n, err := r.count(ctx, "appointments")
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

// NextAppointment returns the earliest start_ts at or after the current
// time as the database sees it, or nil.
func (r *ReportRepository) NextAppointment(ctx context.Context) (*string, error) {
	query := fmt.Sprintf(`SELECT MIN(start_ts) FROM appointments WHERE %s >= %s`,
		r.dialect.TimestampText("start_ts"), r.dialect.NowText)

	var next sql.NullString
	if err := r.get(ctx, "report.next_appointment", &next, query); err != nil {
		return nil, fmt.Errorf("failed to query next appointment: %w", err)
	}
	if !next.Valid {
		return nil, nil
	}
	return &next.String, nil
}

func (r *ReportRepository) StatusCounts(ctx context.Context) ([]repository.StatusCount, error) {
	query := `
		SELECT status, COUNT(*) AS n
		FROM appointments
		GROUP BY status
		ORDER BY status
	`
	var rows []repository.StatusCount
	if err := r.selectAll(ctx, "report.status_counts", &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query status mix: %w", err)
	}
	return rows, nil
}

// DailySummary returns per-day appointment counts and unrounded revenue for
// the most recent days, oldest first.
func (r *ReportRepository) DailySummary(ctx context.Context, days int) ([]*model.DailySummary, error) {
	query := `
		SELECT day, appts, revenue FROM (
			SELECT substr(a.start_ts, 1, 10) AS day,
			       COUNT(a.appt_id) AS appts,
			       COALESCE(SUM(i.total), 0) AS revenue
			FROM appointments a
			LEFT JOIN invoices i ON i.appt_id = a.appt_id
			GROUP BY substr(a.start_ts, 1, 10)
			ORDER BY day DESC
			LIMIT ?
		) recent
		ORDER BY day
	`
	var rows []*model.DailySummary
	if err := r.selectAll(ctx, "report.daily_summary", &rows, query, days); err != nil {
		return nil, fmt.Errorf("failed to query daily summary: %w", err)
	}
	return rows, nil
}

// ExportRows returns the CSV projection, newest first.
func (r *ReportRepository) ExportRows(ctx context.Context) ([]*repository.ExportRow, error) {
	query := `
		SELECT a.appt_id,
		       u.name AS patient,
		       p.name AS provider,
		       a.start_ts,
		       a.end_ts,
		       a.status,
		       i.total
		FROM appointments a
		JOIN users u ON u.user_id = a.patient_id
		JOIN providers p ON p.provider_id = a.provider_id
		LEFT JOIN invoices i ON i.appt_id = a.appt_id
		ORDER BY a.start_ts DESC, a.appt_id DESC
	`
	var rows []*repository.ExportRow
	if err := r.selectAll(ctx, "report.export", &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	return rows, nil
}
