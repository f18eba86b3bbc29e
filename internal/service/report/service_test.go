package report

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-dashboard/internal/cache"
	"github.com/jwalitptl/clinic-dashboard/internal/database/dbtest"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

type env struct {
	svc     *Service
	rows    *dbtest.Fixture
	metrics *metrics.Metrics
	patient int64
	doctor  int64
}

func newEnv(t *testing.T, c cache.Cache) *env {
	t.Helper()
	db := dbtest.Open(t)
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	rows := dbtest.NewFixture(t, db)
	return &env{
		svc:     NewService(sqlstore.NewStore(db, m).Reports, c, m, nil),
		rows:    rows,
		metrics: m,
		patient: rows.User("Ann", "ann@example.com", "x"),
		doctor:  rows.Provider("Dr. A", "ENT", "Room 101"),
	}
}

func (e *env) appt(day, status string) int64 {
	return e.rows.Appointment(e.patient, e.doctor, day+" 09:00:00", day+" 09:30:00", status)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 150.01, Round2(100.0+50.005))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.0, Round2(0))
}

func TestEmptyDatabase(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	series, err := e.svc.RevenueByDay(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, series.Labels)
	assert.Empty(t, series.Values)

	k, err := e.svc.KPIs(ctx)
	require.NoError(t, err)
	assert.Zero(t, k.TotalRevenue)
	assert.Zero(t, k.TotalAppts)
	assert.Zero(t, k.AvgInvoice)
	assert.Nil(t, k.NextAppt)

	mix, err := e.svc.StatusMix(ctx)
	require.NoError(t, err)
	assert.Empty(t, mix.Labels)

	summary, err := e.svc.DailySummary(ctx, 14)
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestRevenueRoundsAfterSumming(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.rows.Invoice(e.appt("2025-03-01", "completed"), 100.00, "paid")
	e.rows.Invoice(e.appt("2025-03-01", "completed"), 50.005, "paid")

	series, err := e.svc.RevenueByDay(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01"}, series.Labels)
	assert.Equal(t, []float64{150.01}, series.Values)

	summary, err := e.svc.DailySummary(ctx, 14)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 150.01, summary[0].Revenue)
	assert.Equal(t, 2, summary[0].Appts)

	k, err := e.svc.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150.01, k.TotalRevenue)
	assert.Equal(t, 75.0, k.AvgInvoice)
	assert.Equal(t, 2, k.TotalAppts)
}

func TestRevenueByDayLimitAndOrder(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	for _, day := range []string{"2025-01-05", "2025-01-01", "2025-01-03", "2025-01-02", "2025-01-04"} {
		e.rows.Invoice(e.appt(day, "completed"), 10, "paid")
	}
	e.appt("2025-01-06", "scheduled")

	series, err := e.svc.RevenueByDay(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, series.Labels)

	series, err = e.svc.RevenueByDay(ctx, 10)
	require.NoError(t, err)
	require.Len(t, series.Labels, 6)
	assert.Equal(t, 0.0, series.Values[5])
	for i := 1; i < len(series.Labels); i++ {
		assert.Less(t, series.Labels[i-1], series.Labels[i])
	}
}

func TestDailySummaryCountsByDatePrefix(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.appt("2025-01-01", "scheduled")
	e.rows.Appointment(e.patient, e.doctor, "2025-01-01 23:59:59", "2025-01-02 00:29:59", "scheduled")
	e.appt("2025-01-02", "cancelled")

	summary, err := e.svc.DailySummary(ctx, 14)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "2025-01-01", summary[0].Day)
	assert.Equal(t, 2, summary[0].Appts)
	assert.Equal(t, 1, summary[1].Appts)

	summary, err = e.svc.DailySummary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "2025-01-02", summary[0].Day)
}

func TestStatusMixAndNextAppt(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.appt("2025-01-01", "scheduled")
	e.appt("2025-01-01", "completed")
	e.appt("2025-01-02", "scheduled")
	future := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
	e.appt(future, "scheduled")

	mix, err := e.svc.StatusMix(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"completed", "scheduled"}, mix.Labels)
	assert.Equal(t, []int{1, 3}, mix.Counts)

	k, err := e.svc.KPIs(ctx)
	require.NoError(t, err)
	require.NotNil(t, k.NextAppt)
	assert.Equal(t, future+" 09:00:00", *k.NextAppt)
}

func TestNextApptBypassesCache(t *testing.T) {
	e := newEnv(t, cache.NewMemory(time.Minute))
	ctx := context.Background()
	later := time.Now().UTC().Add(72 * time.Hour).Format("2006-01-02")
	sooner := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
	e.appt(later, "scheduled")

	k, err := e.svc.KPIs(ctx)
	require.NoError(t, err)
	require.NotNil(t, k.NextAppt)
	assert.Equal(t, later+" 09:00:00", *k.NextAppt)
	assert.Equal(t, 1, k.TotalAppts)

	e.appt(sooner, "scheduled")
	k, err = e.svc.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, k.TotalAppts)
	require.NotNil(t, k.NextAppt)
	assert.Equal(t, sooner+" 09:00:00", *k.NextAppt)
}

func TestDashboardUsesCacheUntilInvalidated(t *testing.T) {
	e := newEnv(t, cache.NewMemory(time.Minute))
	ctx := context.Background()
	e.rows.Invoice(e.appt("2025-01-01", "completed"), 20, "paid")

	d, err := e.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, d.KPIs.TotalRevenue)

	e.rows.Invoice(e.appt("2025-01-02", "completed"), 30, "paid")
	d, err = e.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, d.KPIs.TotalRevenue)
	assert.Equal(t, float64(1), testutil.ToFloat64(e.metrics.CacheLookups.WithLabelValues("kpis", "hit")))

	e.svc.Invalidate(ctx)
	d, err = e.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, d.KPIs.TotalRevenue)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, d.Revenue.Labels)
}
