// Package seed fills an empty clinic database with demo data.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-dashboard/pkg/security"
)

const DefaultPassword = "test123"

var Specialties = []string{
	"Family Medicine", "Pediatrics", "Dermatology", "Cardiology", "Ortho",
	"ENT", "Ophthalmology", "Psychiatry", "OB/GYN", "Neurology",
}

var (
	userEpoch = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	taxRate   = decimal.RequireFromString("0.08")
)

type Options struct {
	Reset        bool
	InitSchema   bool
	Users        int
	Providers    int
	Appointments int

	// Now anchors the appointment schedule; zero means time.Now().
	Now time.Time
	// Rand picks appointment statuses; nil uses a random seed.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{Users: 10, Providers: 10, Appointments: 20}
}

// Result counts the rows written by a run.
type Result struct {
	Users        int
	Providers    int
	Appointments int
	Invoices     int
}

type Seeder struct {
	db     *database.DB
	store  *sqlstore.Store
	hasher security.PasswordHasher
	logger zerolog.Logger
}

func NewSeeder(db *database.DB, hasher security.PasswordHasher, logger zerolog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		store:  sqlstore.NewStore(db, nil),
		hasher: hasher,
		logger: logger,
	}
}

// Run seeds every table that is empty. Tables that already hold rows are
// left alone unless Reset clears them first.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if opts.InitSchema {
		if err := s.db.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	missing, err := s.db.MissingTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tables missing: %s; run with -init-schema or initialise the database first", strings.Join(missing, ", "))
	}

	// one connection for the whole run so the foreign key pragma holds
	scope := database.NewScope(s.db)
	defer scope.Release()
	ctx = database.WithScope(ctx, scope)

	if opts.Reset {
		if err := s.reset(ctx); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	patients, err := s.seedUsers(ctx, opts.Users, res)
	if err != nil {
		return nil, err
	}
	providers, err := s.seedProviders(ctx, opts.Providers, res)
	if err != nil {
		return nil, err
	}
	if err := s.seedAppointments(ctx, opts, patients, providers, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Seeder) reset(ctx context.Context) error {
	s.logger.Info().Msg("Reset requested, deleting existing rows")
	q, err := s.db.QuerierFrom(ctx)
	if err != nil {
		return err
	}
	for _, table := range []string{"invoices", "appointments", "providers", "users"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers returns the ids of every patient, seeded or already present.
func (s *Seeder) seedUsers(ctx context.Context, n int, res *Result) ([]int64, error) {
	count, err := s.store.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		users, err := s.store.Users.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		return ids, nil
	}

	s.logger.Info().Int("count", n).Msg("Seeding patients")
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		hash, err := s.hasher.Hash(DefaultPassword)
		if err != nil {
			return nil, err
		}
		user := &model.User{
			Name:         fmt.Sprintf("Patient %d", i),
			Email:        fmt.Sprintf("patient%d@example.com", i),
			PasswordHash: hash,
			CreatedAt:    userEpoch.AddDate(0, 0, i).Format("2006-01-02"),
		}
		if err := s.store.Users.Create(ctx, user); err != nil {
			return nil, err
		}
		ids = append(ids, user.ID)
		res.Users++
	}
	return ids, nil
}

func (s *Seeder) seedProviders(ctx context.Context, n int, res *Result) ([]int64, error) {
	count, err := s.store.Providers.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		providers, err := s.store.Providers.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, len(providers))
		for i, p := range providers {
			ids[i] = p.ID
		}
		return ids, nil
	}

	s.logger.Info().Int("count", n).Msg("Seeding providers")
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		provider := &model.Provider{
			Name:      fmt.Sprintf("Dr. Provider %d", i),
			Specialty: Specialties[(i-1)%len(Specialties)],
			Room:      fmt.Sprintf("Room %d", 100+i),
		}
		if err := s.store.Providers.Create(ctx, provider); err != nil {
			return nil, err
		}
		ids = append(ids, provider.ID)
		res.Providers++
	}
	return ids, nil
}

func (s *Seeder) seedAppointments(ctx context.Context, opts Options, patients, providers []int64, res *Result) error {
	count, err := s.store.Appointments.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	if opts.Appointments > 0 && (len(patients) == 0 || len(providers) == 0) {
		return fmt.Errorf("cannot seed appointments without patients and providers")
	}

	s.logger.Info().Int("count", opts.Appointments).Msg("Seeding appointments and invoices")
	y, m, d := opts.Now.Date()
	base := time.Date(y, m, d, 9, 0, 0, 0, opts.Now.Location())

	for i := 1; i <= opts.Appointments; i++ {
		start := base.AddDate(0, 0, i/3).Add(time.Duration(i%3) * time.Hour)
		appt := &model.Appointment{
			PatientID:  patients[(i-1)%len(patients)],
			ProviderID: providers[(i-1)%len(providers)],
			StartTS:    model.FormatTimestamp(start),
			EndTS:      model.FormatTimestamp(start.Add(30 * time.Minute)),
			Status:     PickStatus(opts.Rand),
		}
		if err := s.store.Appointments.Create(ctx, appt); err != nil {
			return err
		}
		res.Appointments++

		inv := InvoiceFor(i, appt)
		if err := s.store.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		res.Invoices++
	}
	return nil
}

// PickStatus draws scheduled, completed and cancelled with weights 6:3:1.
func PickStatus(r *rand.Rand) model.AppointmentStatus {
	switch n := r.IntN(10); {
	case n < 6:
		return model.AppointmentStatusScheduled
	case n < 9:
		return model.AppointmentStatusCompleted
	default:
		return model.AppointmentStatusCancelled
	}
}

// InvoiceFor prices the i-th seeded appointment. Only completed visits are
// paid.
func InvoiceFor(i int, appt *model.Appointment) *model.Invoice {
	subtotal := decimal.NewFromInt(int64(100 + (i%7)*15))
	discount := decimal.Zero
	if i%5 == 0 {
		discount = decimal.NewFromInt(5)
	}
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Sub(discount).Add(tax).Round(2)

	status := model.InvoiceStatusUnpaid
	if appt.Status == model.AppointmentStatusCompleted {
		status = model.InvoiceStatusPaid
	}
	return &model.Invoice{
		ApptID:   appt.ID,
		Subtotal: subtotal.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
		Status:   status,
	}
}
