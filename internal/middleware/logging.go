// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/utils"
)

// RequestLogger logs every request except health checks.
func RequestLogger(logger *logrus.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		userID, _ := c.Get("user_id")
		sessionID, _ := c.Get("session_id")

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"session_id": sessionID,
			"user_id":    userID,
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request processed")
		case status >= 400:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

// Recovery turns panics into the error envelope and logs them.
func Recovery(logger *logrus.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("Recovered from panic")
		utils.InternalErrorResponse(c, "")
		c.Abort()
	})
}
