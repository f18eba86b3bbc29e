package export

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-dashboard/internal/database/dbtest"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"Patient 1", `"Patient 1"`},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{`x"y`, `"x""y"`},
		{"", ""},
		{"tab\there", "tab\there"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}

func TestFormatTotal(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	assert.Equal(t, "0", FormatTotal(nil))
	assert.Equal(t, "108.0", FormatTotal(f(108)))
	assert.Equal(t, "113.4", FormatTotal(f(113.4)))
	assert.Equal(t, "150.005", FormatTotal(f(150.005)))
	assert.Equal(t, "0.0", FormatTotal(f(0)))
}

func TestLine(t *testing.T) {
	total := 108.0
	line := Line(&repository.ExportRow{
		ApptID:   3,
		Patient:  "Patient 3",
		Provider: "Dr. Provider 1",
		StartTS:  "2025-01-01 09:00:00",
		EndTS:    "2025-01-01 09:30:00",
		Status:   "completed",
		Total:    &total,
	})
	assert.Equal(t, `3,"Patient 3","Dr. Provider 1","2025-01-01 09:00:00","2025-01-01 09:30:00",completed,108.0`, line)
}

func TestAppointmentsCSV(t *testing.T) {
	db := dbtest.Open(t)
	rows := dbtest.NewFixture(t, db)
	svc := NewService(sqlstore.NewStore(db, nil).Reports, nil)
	ctx := context.Background()

	out, err := svc.AppointmentsCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, "appt_id,patient,provider,start_ts,end_ts,status,total", string(out))

	p := rows.User(`Ann "Nan" Lee`, "ann@example.com", "x")
	d := rows.Provider("Smith,Jo", "ENT", "Room 1")
	a1 := rows.Appointment(p, d, "2025-01-01 09:00:00", "2025-01-01 09:30:00", "completed")
	a2 := rows.Appointment(p, d, "2025-01-02 09:00:00", "2025-01-02 09:30:00", "scheduled")
	a3 := rows.Appointment(p, d, "2025-01-02 09:00:00", "2025-01-02 09:30:00", "cancelled")
	rows.Invoice(a1, 113.4, "paid")

	out, err = svc.AppointmentsCSV(ctx)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(string(out), "\n"))

	lines := strings.Split(string(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], itoa(a3)+","))
	assert.True(t, strings.HasPrefix(lines[2], itoa(a2)+","))
	assert.Equal(t, itoa(a1)+`,"Ann ""Nan"" Lee","Smith,Jo","2025-01-01 09:00:00","2025-01-01 09:30:00",completed,113.4`, lines[3])
	assert.True(t, strings.HasSuffix(lines[1], ",cancelled,0"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
