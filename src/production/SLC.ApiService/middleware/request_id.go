package middleware

import (
	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestLoggerKey contextKey = "request_logger"
)

// RequestID tags every request with an id, echoed in the response header and
// attached to the request-scoped logger
func RequestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(string(requestLoggerKey), log.WithRequestID(requestID))
		c.Next()
	}
}

// LoggerFromGinContext returns the request-scoped logger, or nil outside RequestID
func LoggerFromGinContext(c *gin.Context) *logger.Logger {
	val, exists := c.Get(string(requestLoggerKey))
	if !exists {
		return nil
	}
	log, _ := val.(*logger.Logger)
	return log
}
