package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/handler"
	"github.com/jwalitptl/clinic-dashboard/internal/model"
	authsvc "github.com/jwalitptl/clinic-dashboard/internal/service/auth"
	"github.com/jwalitptl/clinic-dashboard/internal/web"
)

// Service is the part of the auth service the login pages use.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	StartSession(id model.Identity) (string, error)
}

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	service Service
	cookie  CookieConfig
}

func NewHandler(service Service, cookie CookieConfig) *Handler {
	return &Handler{service: service, cookie: cookie}
}

func (h *Handler) LoginForm(c *gin.Context) {
	handler.Render(c, http.StatusOK, web.PageLogin, "Login", nil)
}

// Login signs the user in. A failed attempt shows the form again with a
// message and sets no cookie.
func (h *Handler) Login(c *gin.Context) {
	email := c.PostForm("email")
	user, err := h.service.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, authsvc.ErrNoSuchUser) || errors.Is(err, authsvc.ErrWrongPassword) {
			zerolog.Ctx(c.Request.Context()).Info().Str("reason", err.Error()).Msg("Login rejected")
			handler.Render(c, http.StatusOK, web.PageLogin, "Login", gin.H{
				"flash": authsvc.Flash(err),
				"email": authsvc.NormalizeEmail(email),
			})
			return
		}
		handler.Fail(c, err)
		return
	}

	token, err := h.service.StartSession(user)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, "/login")
}
