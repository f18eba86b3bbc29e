package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

const ContextUser = "user"

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	sessions   SessionResolver
	cookieName string
}

func NewAuthMiddleware(sessions SessionResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, cookieName: cookieName}
}

// LoadSession puts the signed-in user, if any, into the context. Invalid
// or stale cookies are ignored.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := m.sessions.ResolveSession(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ContextUser, user)
		case apperrors.HasCode(err, apperrors.ErrUnauthorized):
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("Ignoring invalid session")
		default:
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireLogin sends anonymous browsers to the login page.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPIAuth answers 401 for anonymous API calls.
func (m *AuthMiddleware) RequireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "authentication required",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

func CurrentUserID(c *gin.Context) (int64, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return 0, false
	}
	return user.GetID(), true
}
