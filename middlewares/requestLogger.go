package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"civicresolve-be/models"

	"github.com/gin-gonic/gin"
)

// RequestLogger emits one record per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
		}
		if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		if userID, exists := c.Get("user_id"); exists {
			args = append(args, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.Last().Error())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Error("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warn("HTTP request completed with client error", args...)
		default:
			log.Info("HTTP request completed", args...)
		}
	}
}

// Recovery converts a panic into a 500 JSON error and logs it with
// credentials redacted. http.ErrAbortHandler is re-raised for net/http.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			attrs := []any{
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"headers", redactHeaders(c.Request.Header),
				"panic", recovered,
			}
			if userID, ok := c.Get("user_id"); ok {
				attrs = append(attrs, "user_id", userID)
			}

			if err, ok := recovered.(error); ok && brokenConnection(err) {
				log.Warn("client went away mid-response", attrs...)
				c.Abort()
				return
			}

			log.Error("panic recovered", append(attrs, "stack", string(debug.Stack()))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error occurred",
				"type":  models.ErrorTypeInternal,
			})
		}()
		c.Next()
	}
}

var sensitiveHeaders = []string{"Authorization", "Cookie"}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	for _, k := range sensitiveHeaders {
		if _, ok := out[k]; ok {
			out[k] = "*"
		}
	}
	return out
}

func brokenConnection(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
