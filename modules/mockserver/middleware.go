package mockserver

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/guarzo/recruitapi/common"
)

// writeEnvelope responds with the API's success wrapper.
func writeEnvelope(c *gin.Context, status int, message string, model any) {
	c.JSON(status, gin.H{
		"IsSuccess": true,
		"Status":    status,
		"Message":   message,
		"Model":     model,
	})
}

// writeError responds with the {message, code, details} failure body.
func writeError(c *gin.Context, status int, code, message string, details map[string]any) {
	body := gin.H{
		"message": message,
		"code":    code,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, body)
}

func writeValidationError(c *gin.Context, fields map[string]string) {
	errs := make(map[string]any, len(fields))
	for k, v := range fields {
		errs[k] = v
	}
	writeError(c, http.StatusBadRequest, common.CodeValidation, "Validation failed",
		map[string]any{"validationErrors": errs})
}

// recoverMiddleware turns a handler panic into a 500 and reports it to Sentry.
// Without sentry.Init the capture is a no-op.
func (s *Server) recoverMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", fmt.Sprint(rec))
					scope.SetExtra("stack", string(debug.Stack()))
					scope.SetTag("path", c.Request.URL.Path)
					sentry.CaptureMessage("panic in request")
				})
				s.logger.Error("panic recovered",
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"panic", rec)
				writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetHeader(common.RequestIDHeader))
	}
}
