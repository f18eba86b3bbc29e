// Command setpassword resets a user's password, by default the demo login
// patient1@example.com / test123.
package main

import (
	"context"
	"flag"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-dashboard/internal/config"
	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
	authService "github.com/jwalitptl/clinic-dashboard/internal/service/auth"
	"github.com/jwalitptl/clinic-dashboard/pkg/auth"
	"github.com/jwalitptl/clinic-dashboard/pkg/logger"
	"github.com/jwalitptl/clinic-dashboard/pkg/security"
)

func main() {
	email := flag.String("email", "patient1@example.com", "Account email")
	password := flag.String("password", "test123", "New password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load configuration")
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ParseLevel(cfg.Log.Level), JSON: cfg.Log.JSON})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err, "invalid configuration")
	}

	ctx := context.Background()
	db, err := database.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	store := sqlstore.NewStore(db, nil)
	svc := authService.NewService(store.Users, security.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewSessionService(cfg.Session.Secret, cfg.Session.TTL))

	if err := svc.SetPassword(ctx, *email, *password); err != nil {
		log.Fatal(err, "failed to set password", "email", *email)
	}
	log.Info("password set", "email", authService.NormalizeEmail(*email))
}
