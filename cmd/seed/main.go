// Command seed fills the clinic database with demo patients, providers,
// appointments and invoices.
package main

import (
	"context"
	"flag"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-dashboard/internal/config"
	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/seed"
	"github.com/jwalitptl/clinic-dashboard/pkg/logger"
	"github.com/jwalitptl/clinic-dashboard/pkg/security"
)

func main() {
	opts := seed.DefaultOptions()
	flag.BoolVar(&opts.Reset, "reset", false, "Drop existing rows before seeding")
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of demo patients")
	flag.IntVar(&opts.Providers, "providers", opts.Providers, "Number of providers")
	flag.IntVar(&opts.Appointments, "appointments", opts.Appointments, "Number of appointments")
	flag.BoolVar(&opts.InitSchema, "init-schema", false, "Create missing tables before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load configuration")
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ParseLevel(cfg.Log.Level), JSON: cfg.Log.JSON})

	// the seeder may create the database file, so only the path is required
	if cfg.Database.Driver != "postgres" && cfg.Database.Path == "" {
		log.Fatal(nil, "DB_PATH missing. Create .env (see .env.example)")
	}
	log.Info("using database", "driver", cfg.Database.Driver, "path", cfg.Database.Path)

	ctx := context.Background()
	db, err := database.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	res, err := seed.NewSeeder(db, security.NewBcryptHasher(bcrypt.DefaultCost), *log.Zerolog()).Run(ctx, opts)
	if err != nil {
		log.Fatal(err, "seeding failed")
	}
	log.Info("seeding complete",
		"users", res.Users,
		"providers", res.Providers,
		"appointments", res.Appointments,
		"invoices", res.Invoices,
	)
}
