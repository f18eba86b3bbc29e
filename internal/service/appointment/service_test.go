package appointment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-dashboard/internal/database/dbtest"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

type env struct {
	svc      *Service
	rows     *dbtest.Fixture
	inv      *countingInvalidator
	patient  int64
	provider int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	store := sqlstore.NewStore(db, nil)
	inv := &countingInvalidator{}
	rows := dbtest.NewFixture(t, db)
	return &env{
		svc:      NewService(store.Appointments, store.Users, store.Providers, inv, nil),
		rows:     rows,
		inv:      inv,
		patient:  rows.User("Patient 1", "patient1@example.com", "x"),
		provider: rows.Provider("Dr. Provider 1", "ENT", "Room 101"),
	}
}

func (e *env) input(start, end, status string) model.AppointmentInput {
	return model.AppointmentInput{
		PatientID:  e.patient,
		ProviderID: e.provider,
		StartTS:    start,
		EndTS:      end,
		Status:     status,
	}
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	appt, err := e.svc.Create(ctx, e.input(" 2025-05-01 09:00:00 ", "2025-05-01 09:30:00\n", " Scheduled "))
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01 09:00:00", appt.StartTS)
	assert.Equal(t, "2025-05-01 09:30:00", appt.EndTS)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, 1, e.inv.n)

	stored, err := e.svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt, stored)
}

func TestCreateRejectsEndNotAfterStart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, end := range []string{"2025-05-01 09:00:00", "2025-05-01 08:59:59"} {
		_, err := e.svc.Create(ctx, e.input("2025-05-01 09:00:00", end, "scheduled"))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "End time must be after start time", verr.Message)
		assert.Equal(t, end, verr.Input.EndTS)
		assert.Equal(t, e.patient, verr.Input.PatientID)
	}
	assert.Equal(t, 0, e.rows.Count("appointments"))
	assert.Equal(t, 0, e.inv.n)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Create(context.Background(), e.input("2025-05-01 09:00:00", "2025-05-01 09:30:00", "BOGUS "))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Status must be one of: cancelled, completed, scheduled", verr.Message)
	assert.Equal(t, "bogus", verr.Input.Status)
	assert.Equal(t, 0, e.rows.Count("appointments"))
}

func TestCreateRejectsBadTimestamp(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Create(context.Background(), e.input("05/01/2025 9am", "2025-05-01 09:30:00", "scheduled"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "Start time")
}

func TestUpdateIsNotValidated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.rows.Appointment(e.patient, e.provider, "2025-05-01 09:00:00", "2025-05-01 09:30:00", "scheduled")

	appt, err := e.svc.Update(ctx, id, e.input("2025-05-01 10:00:00", "2025-05-01 09:00:00", "whatever"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatus("whatever"), appt.Status)

	stored, err := e.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01 09:00:00", stored.EndTS)
	assert.Equal(t, 1, e.inv.n)
}

func TestUpdateMissing(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Update(context.Background(), 404, e.input("a", "b", "scheduled"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.rows.Appointment(e.patient, e.provider, "2025-05-01 09:00:00", "2025-05-01 09:30:00", "scheduled")
	b := e.rows.Appointment(e.patient, e.provider, "2025-04-01 09:00:00", "2025-04-01 09:30:00", "completed")

	list, err := e.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0].ID)
	assert.Equal(t, "Patient 1", list[0].PatientName)

	require.NoError(t, e.svc.Delete(ctx, a))
	require.NoError(t, e.svc.Delete(ctx, 9999))
	list, err = e.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].ID)
}

func TestFormOptions(t *testing.T) {
	e := newEnv(t)
	e.rows.User("Patient 2", "patient2@example.com", "x")

	opts, err := e.svc.FormOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, opts.Patients, 2)
	assert.Equal(t, "Patient 1", opts.Patients[0].Name)
	require.Len(t, opts.Providers, 1)
}
