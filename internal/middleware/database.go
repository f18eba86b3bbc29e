package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-dashboard/internal/database"
	"github.com/jwalitptl/clinic-dashboard/pkg/metrics"
)

// Database gives each request its own lazily acquired connection and
// returns it once the rest of the chain has finished, panics included.
func Database(db *database.DB, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := database.NewScope(db)
		if m != nil {
			scope.OnAcquire = m.ConnectionsInUse.Inc
			scope.OnRelease = m.ConnectionsInUse.Dec
		}
		defer func() {
			if err := scope.Release(); err != nil {
				zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("Failed to release database connection")
			}
		}()

		c.Request = c.Request.WithContext(database.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}
