package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/web"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// WantsJSON reports whether the route answers in JSON rather than HTML.
func WantsJSON(c *gin.Context) bool {
	p := c.Request.URL.Path
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/health/")
}

// RenderError writes the error page, or a JSON body for API routes.
// Server-side failures all surface as a generic 500.
func RenderError(c *gin.Context, status int) {
	if status < 400 || status >= 500 {
		status = http.StatusInternalServerError
	}
	traceID := c.GetString(ContextRequestID)

	if WantsJSON(c) {
		c.AbortWithStatusJSON(status, ErrorResponse{
			Code:    status,
			Message: http.StatusText(status),
			TraceID: traceID,
		})
		return
	}

	page := web.PageServerError
	if status == http.StatusNotFound {
		page = web.PageNotFound
	}
	title := strconv.Itoa(status)
	data := gin.H{"title": title, "request_id": traceID}
	if user, ok := c.Get(ContextUser); ok {
		data["user"] = user
	}
	c.HTML(status, page, data)
	c.Abort()
}

// ErrorHandler turns errors recorded with c.Error into an error page.
// An error exposing StatusCode() anywhere in its chain chooses the status;
// the rest become 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		var coded interface{ StatusCode() int }
		if errors.As(lastErr.Err, &coded) {
			status = coded.StatusCode()
		}

		logger := zerolog.Ctx(c.Request.Context())
		if status >= 500 {
			logger.Error().Err(lastErr.Err).Str("path", c.Request.URL.Path).Msg("Request failed")
		}
		RenderError(c, status)
	}
}

// NotFound is used for unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		RenderError(c, http.StatusNotFound)
	}
}
