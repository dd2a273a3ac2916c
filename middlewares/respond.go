package middlewares

import (
	"log/slog"
	"net/http"

	"civicresolve-be/models"

	"github.com/gin-gonic/gin"
)

// AbortWithError writes err as the JSON error body and stops the chain.
// Errors that are not AppErrors are reported as internal.
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := models.AsAppError(err)
	if !ok {
		appErr = models.NewInternalError("Internal server error", err)
	}
	if appErr.Code >= http.StatusInternalServerError {
		// Cause goes to the log, never to the client.
		slog.Default().Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
		_ = c.Error(err)
	}

	body := gin.H{"error": appErr.Message, "type": appErr.Type}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}
