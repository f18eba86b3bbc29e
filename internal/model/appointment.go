package model

import (
	"sort"
	"time"
)

// TimestampLayout is the stored form of start_ts and end_ts. Values are
// compared and grouped as plain strings.
const TimestampLayout = "2006-01-02 15:04:05"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

var appointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// AppointmentStatuses returns the allowed statuses in ascending order.
func AppointmentStatuses() []AppointmentStatus {
	out := make([]AppointmentStatus, len(appointmentStatuses))
	copy(out, appointmentStatuses)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range appointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransition reports whether an appointment may move from s to next.
// Staff can correct any status to any other, including reopening a
// cancelled or completed visit, so every pair of valid statuses is allowed.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	return s.Valid() && next.Valid()
}

type Appointment struct {
	ID         int64             `db:"appt_id" json:"appt_id"`
	PatientID  int64             `db:"patient_id" json:"patient_id"`
	ProviderID int64             `db:"provider_id" json:"provider_id"`
	StartTS    string            `db:"start_ts" json:"start_ts"`
	EndTS      string            `db:"end_ts" json:"end_ts"`
	Status     AppointmentStatus `db:"status" json:"status"`
}

// AppointmentView is an appointment joined to its patient and provider names.
type AppointmentView struct {
	Appointment
	PatientName  string `db:"patient" json:"patient"`
	ProviderName string `db:"provider" json:"provider"`
}

// AppointmentInput carries form values for create and edit. Timestamps and
// status are raw strings so a rejected form can be shown back unchanged.
type AppointmentInput struct {
	PatientID  int64  `form:"patient_id"`
	ProviderID int64  `form:"provider_id"`
	StartTS    string `form:"start_ts"`
	EndTS      string `form:"end_ts"`
	Status     string `form:"status"`
}

func (in AppointmentInput) Appointment(id int64) *Appointment {
	return &Appointment{
		ID:         id,
		PatientID:  in.PatientID,
		ProviderID: in.ProviderID,
		StartTS:    in.StartTS,
		EndTS:      in.EndTS,
		Status:     AppointmentStatus(in.Status),
	}
}

// InputFrom fills a form from a stored appointment.
func InputFrom(a *Appointment) AppointmentInput {
	return AppointmentInput{
		PatientID:  a.PatientID,
		ProviderID: a.ProviderID,
		StartTS:    a.StartTS,
		EndTS:      a.EndTS,
		Status:     string(a.Status),
	}
}

// ParseTimestamp parses a value in TimestampLayout.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
