package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

type AppointmentRepository struct {
	BaseRepository
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (patient_id, provider_id, start_ts, end_ts, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING appt_id
	`
	err := r.get(ctx, "appointment.create", &appt.ID, query,
		appt.PatientID,
		appt.ProviderID,
		appt.StartTS,
		appt.EndTS,
		appt.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT appt_id, patient_id, provider_id, start_ts, end_ts, status
		FROM appointments
		WHERE appt_id = ?
	`
	var appt model.Appointment
	if err := r.get(ctx, "appointment.get", &appt, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFoundOr(err, "appointment"))
	}
	return &appt, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = ?, provider_id = ?, start_ts = ?, end_ts = ?, status = ?
		WHERE appt_id = ?
	`
	rows, err := r.exec(ctx, "appointment.update", query,
		appt.PatientID,
		appt.ProviderID,
		appt.StartTS,
		appt.EndTS,
		appt.Status,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("appointment", nil)
	}
	return nil
}

// Delete removes the appointment if present. Deleting a missing id is not
// an error.
// Delete removes the appointment and its invoices together. A missing id is
// not an error.
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, "appointment.delete", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM invoices WHERE appt_id = ?`), id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM appointments WHERE appt_id = ?`), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

// List returns appointments with resolvable patient and provider, by id.
func (r *AppointmentRepository) List(ctx context.Context) ([]*model.AppointmentView, error) {
	query := `
		SELECT a.appt_id, a.patient_id, a.provider_id, a.start_ts, a.end_ts, a.status,
		       u.name AS patient, p.name AS provider
		FROM appointments a
		JOIN users u ON u.user_id = a.patient_id
		JOIN providers p ON p.provider_id = a.provider_id
		ORDER BY a.appt_id
	`
	var appts []*model.AppointmentView
	if err := r.selectAll(ctx, "appointment.list", &appts, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *AppointmentRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "appointments")
}
