package router

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/appointment"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/auth"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/health"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-dashboard/internal/handler/report"
	"github.com/jwalitptl/clinic-dashboard/internal/middleware"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

type Handlers struct {
	Auth         *auth.Handler
	Appointments *appointment.Handler
	Reports      *report.Handler
	Health       *health.Handler
	Prometheus   *prometheus.Handler
}

type RouterConfig struct {
	// Mode is a gin mode: debug, release or test.
	Mode       string
	Templates  *template.Template
	LoginRate  rate.Limit
	LoginBurst int
	// Secure enables HSTS for HTTPS deployments.
	Secure bool
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	limiter  *middleware.RateLimiter
}

func NewRouter(db *database.DB, m *metrics.Metrics, auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(config.Templates)

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.Secure)),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.ErrorHandler(),
		middleware.Database(db, m),
		auth.LoadSession(),
	)
	engine.NoRoute(middleware.NotFound())

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		limiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.LoginRate,
			Burst: config.LoginBurst,
		}),
	}
}

func (r *Router) Setup() {
	h := r.handlers

	h.Health.RegisterRoutes(r.engine)
	if h.Prometheus != nil {
		r.engine.GET("/metrics", h.Prometheus.Handler())
	}

	r.engine.GET("/login", h.Auth.LoginForm)
	r.engine.POST("/login", r.limiter.RateLimit(), h.Auth.Login)

	pages := r.engine.Group("/", middleware.NoStore(), r.auth.RequireLogin())
	{
		pages.GET("/logout", h.Auth.Logout)
		pages.GET("/", h.Reports.Dashboard)
		pages.GET("/reports/daily", h.Reports.Daily)
		pages.GET("/exports/appointments.csv", h.Reports.AppointmentsCSV)

		pages.GET("/appointments", h.Appointments.List)
		pages.GET("/appointments/new", h.Appointments.NewForm)
		pages.POST("/appointments/new", h.Appointments.Create)
		pages.GET("/appointments/:id/edit", h.Appointments.EditForm)
		pages.POST("/appointments/:id/edit", h.Appointments.Update)
		pages.POST("/appointments/:id/delete", h.Appointments.Delete)
	}

	api := r.engine.Group("/api", middleware.NoStore(), r.auth.RequireAPIAuth())
	{
		api.GET("/reports/daily", h.Reports.DailyJSON)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
