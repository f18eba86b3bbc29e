package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository"
	"github.com/jwalitptl/clinic-dashboard/pkg/validator"
)

// ValidationError is returned when a new appointment is rejected. Input
// holds the normalized values so the form can be shown again.
type ValidationError struct {
	Message string
	Input   model.AppointmentInput
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalidator is told when appointment data changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type createForm struct {
	PatientID  int64  `label:"Patient" validate:"gt=0"`
	ProviderID int64  `label:"Provider" validate:"gt=0"`
	StartTime  string `label:"Start time" validate:"appt_datetime"`
	EndTime    string `label:"End time" validate:"appt_datetime,appt_after=StartTime"`
	Status     string `label:"Status" validate:"appt_status"`
}

// FormOptions lists the choices for the patient and provider pickers.
type FormOptions struct {
	Patients  []*model.User
	Providers []*model.Provider
}

type Service struct {
	repo      repository.AppointmentRepository
	users     repository.UserRepository
	providers repository.ProviderRepository
	reports   Invalidator
	validate  *validator.Validator
	logger    *zerolog.Logger
}

func NewService(repo repository.AppointmentRepository, users repository.UserRepository,
	providers repository.ProviderRepository, reports Invalidator, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		repo:      repo,
		users:     users,
		providers: providers,
		reports:   reports,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Normalize trims the timestamps and status and lower-cases the status.
func Normalize(in model.AppointmentInput) model.AppointmentInput {
	in.StartTS = strings.TrimSpace(in.StartTS)
	in.EndTS = strings.TrimSpace(in.EndTS)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	return in
}

// Validate checks a new appointment: both timestamps parse, the end is
// strictly after the start and the status is known.
func (s *Service) Validate(in model.AppointmentInput) error {
	err := s.validate.Struct(createForm{
		PatientID:  in.PatientID,
		ProviderID: in.ProviderID,
		StartTime:  in.StartTS,
		EndTime:    in.EndTS,
		Status:     in.Status,
	})
	if err != nil {
		return &ValidationError{Message: err.Error(), Input: in}
	}
	return nil
}

// Create validates and stores a new appointment. Nothing is written when
// validation fails.
func (s *Service) Create(ctx context.Context, in model.AppointmentInput) (*model.Appointment, error) {
	in = Normalize(in)
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	appt := in.Appointment(0)
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.changed(ctx)
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// Update overwrites an existing appointment with the submitted values.
// Edits are stored without validation; an unknown status is only logged.
func (s *Service) Update(ctx context.Context, id int64, in model.AppointmentInput) (*model.Appointment, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in = Normalize(in)
	appt := in.Appointment(id)
	if !existing.Status.CanTransition(appt.Status) {
		s.logger.Warn().
			Int64("appt_id", id).
			Str("from", string(existing.Status)).
			Str("to", string(appt.Status)).
			Msg("Appointment saved with unrecognised status")
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return appt, nil
}

// Delete removes an appointment; a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.AppointmentView, error) {
	return s.repo.List(ctx)
}

func (s *Service) FormOptions(ctx context.Context) (*FormOptions, error) {
	patients, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, err
	}
	return &FormOptions{Patients: patients, Providers: providers}, nil
}

func (s *Service) changed(ctx context.Context) {
	if s.reports != nil {
		s.reports.Invalidate(ctx)
	}
}
