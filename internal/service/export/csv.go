// Package export renders the appointment list as a downloadable CSV.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

const (
	ContentType = "text/csv"
	Filename    = "appointments.csv"
)

var Header = []string{"appt_id", "patient", "provider", "start_ts", "end_ts", "status", "total"}

type Service struct {
	repo    repository.ReportRepository
	metrics *metrics.Metrics
}

func NewService(repo repository.ReportRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// AppointmentsCSV builds the whole file in memory: a header line and one
// line per appointment with a known patient and provider, newest first.
// Lines are separated by \n with no trailing newline.
func (s *Service) AppointmentsCSV(ctx context.Context) ([]byte, error) {
	start := time.Now()
	rows, err := s.repo.ExportRows(ctx)
	s.metrics.ObserveReport("export_csv", start)
	if err != nil {
		return nil, fmt.Errorf("failed to export appointments: %w", err)
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(Header, ","))
	for _, r := range rows {
		lines = append(lines, Line(r))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func Line(r *repository.ExportRow) string {
	cells := []string{
		strconv.FormatInt(r.ApptID, 10),
		r.Patient,
		r.Provider,
		r.StartTS,
		r.EndTS,
		r.Status,
		FormatTotal(r.Total),
	}
	for i, c := range cells {
		cells[i] = Escape(c)
	}
	return strings.Join(cells, ",")
}

// Escape quotes a cell only when it contains a comma, a double quote or a
// space. encoding/csv quotes on different characters and cannot be used
// without changing existing downloads.
func Escape(s string) string {
	if !strings.ContainsAny(s, `," `) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatTotal writes a stored total in its shortest form with at least one
// fractional digit (108.0, 113.4). A missing invoice is written as 0.
func FormatTotal(total *float64) string {
	if total == nil {
		return "0"
	}
	s := strconv.FormatFloat(*total, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
