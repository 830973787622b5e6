package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

// RequestLogger assigns a request id, stores it on the request context for downstream loggers,
// and logs one line per request.
func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set("request_id", reqID)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), reqID))

		c.Next()

		lat := time.Since(start)
		status := c.Writer.Status()

		entry := l.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     status,
			"latency_ms": lat.Milliseconds(),
			"ip":         c.ClientIP(),
		})

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log := logging.NewLogger(c.Request.Context())
				utils.LogPanic(log, fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path), recovered)
				c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
					Code:    codeInternal,
					Message: http.StatusText(http.StatusInternalServerError),
				})
			}
		}()
		c.Next()
	}
}
