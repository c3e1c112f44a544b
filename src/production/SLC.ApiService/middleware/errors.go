package middleware

import (
	"net/http"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"

	"github.com/gin-gonic/gin"
)

// AbortWithError renders err as {"error", "kind"} with the status of its kind.
// Server-side failures are logged with the request logger.
func AbortWithError(c *gin.Context, err error) {
	status, body := apperror.ToResponse(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		if log := LoggerFromGinContext(c); log != nil {
			log.Logger.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")
		}
	}
	c.AbortWithStatusJSON(status, body)
}
