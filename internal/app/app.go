// Package app assembles the web application from configuration.
package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-dashboard/internal/cache"
	"github.com/jwalitptl/clinic-dashboard/internal/config"
	"github.com/jwalitptl/clinic-dashboard/internal/database"
	appointmentHandler "github.com/jwalitptl/clinic-dashboard/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-dashboard/internal/handler/auth"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/health"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/prometheus"
	reportHandler "github.com/jwalitptl/clinic-dashboard/internal/handler/report"
	"github.com/jwalitptl/clinic-dashboard/internal/middleware"
	"github.com/jwalitptl/clinic-dashboard/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-dashboard/internal/router"
	appointmentService "github.com/jwalitptl/clinic-dashboard/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-dashboard/internal/service/auth"
	"github.com/jwalitptl/clinic-dashboard/internal/service/export"
	reportService "github.com/jwalitptl/clinic-dashboard/internal/service/report"
	"github.com/jwalitptl/clinic-dashboard/internal/web"
	"github.com/jwalitptl/clinic-dashboard/pkg/auth"
	"github.com/jwalitptl/clinic-dashboard/pkg/logger"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
	"github.com/jwalitptl/clinic-dashboard/pkg/security"
)

const metricsNamespace = "clinic"

type App struct {
	Router  *router.Router
	Reports *reportService.Service
	Auth    *authService.Service
	Cache   cache.Cache
	Metrics *metrics.Metrics
}

// New wires repositories, services, handlers and routes over db.
func New(cfg *config.Config, db *database.DB, log *logger.Logger) (*App, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	promHandler := prometheus.New()
	m := metrics.NewMetrics(metricsNamespace, promHandler.Registry())

	reportCache, err := cache.New(cfg.Cache, log.Zerolog())
	if err != nil {
		return nil, fmt.Errorf("failed to set up report cache: %w", err)
	}

	store := sqlstore.NewStore(db, m)

	reports := reportService.NewService(store.Reports, reportCache, m, log.Zerolog())
	exports := export.NewService(store.Reports, m)
	appointments := appointmentService.NewService(store.Appointments, store.Users, store.Providers, reports, log.Zerolog())
	sessions := auth.NewSessionService(cfg.Session.Secret, cfg.Session.TTL)
	authSvc := authService.NewService(store.Users, security.NewBcryptHasher(bcrypt.DefaultCost), sessions)

	handlers := router.Handlers{
		Auth: authHandler.NewHandler(authSvc, authHandler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		}),
		Appointments: appointmentHandler.NewHandler(appointments),
		Reports:      reportHandler.NewHandler(reports, exports),
		Health:       health.NewHandler(db),
		Prometheus:   promHandler,
	}

	mode := cfg.Server.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	r := router.NewRouter(db, m, middleware.NewAuthMiddleware(authSvc, cfg.Session.CookieName), handlers, router.RouterConfig{
		Mode:       mode,
		Templates:  tmpl,
		LoginRate:  rate.Limit(cfg.RateLimit.LoginPerSecond),
		LoginBurst: cfg.RateLimit.LoginBurst,
		Secure:     cfg.Session.Secure,
	})
	r.Setup()

	return &App{
		Router:  r,
		Reports: reports,
		Auth:    authSvc,
		Cache:   reportCache,
		Metrics: m,
	}, nil
}
