package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

// ClassroomGate hides the routes behind it unless classroom mode is on.
// Disabled looks exactly like an unknown route. A flag lookup failure is
// treated as disabled.
func ClassroomGate(log *logger.Logger, flags services.FeatureFlagService) gin.HandlerFunc {
	gateLog := log.With("Middleware", "ClassroomGate")
	return func(c *gin.Context) {
		enabled, err := flags.ClassroomEnabled(c.Request.Context())
		if err != nil {
			gateLog.Warn("classroom flag lookup failed", "error", err)
		}
		if err != nil || !enabled {
			response.AbortError(c, http.StatusNotFound, "", errors.New("Not Found"))
			return
		}
		c.Next()
	}
}
