package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"contacts/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(log, c, start, "panic", err.Error(), "stack", string(debug.Stack()))

				response.Error(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				c.Abort()
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(log, c, start, "http_error", fmt.Sprintf("status=%d", c.Writer.Status()))
				}
				return
			}

			for _, err := range c.Errors {
				if err.Meta != nil {
					logRequestError(log, c, start, fmt.Sprintf("%v", err.Type), err.Error(), "meta", fmt.Sprintf("%+v", err.Meta))
					continue
				}
				logRequestError(log, c, start, fmt.Sprintf("%v", err.Type), err.Error())
			}
		}()

		c.Next()
	}
}

func logRequestError(log *slog.Logger, c *gin.Context, start time.Time, errType, message string, extra ...any) {
	attrs := []any{
		"type", errType,
		"status", c.Writer.Status(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"query", c.Request.URL.RawQuery,
		"client_ip", c.ClientIP(),
		"user_id", c.GetInt64("user_id"),
		"role", c.GetString("role"),
		"request_id", requestID(c),
		"latency", time.Since(start),
		"error", message,
	}
	log.ErrorContext(c.Request.Context(), "request_error", append(attrs, extra...)...)
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
