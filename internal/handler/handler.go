package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-dashboard/internal/middleware"
	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

// Render shows an HTML page, adding the signed-in user for the nav bar.
func Render(c *gin.Context, status int, page, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	if user, ok := middleware.CurrentUser(c); ok {
		data["user"] = user
	}
	c.HTML(status, page, data)
}

// Fail records err for the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamID reads a positive integer path parameter. Anything else is
// treated as a missing page.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("page", err)
	}
	return id, nil
}
