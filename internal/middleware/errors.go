package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/vidtube/internal/apperrors"
)

type errorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// ErrorHandler renders the last error pushed with c.Error as the failure envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	logger = orNop(logger)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.As(c.Errors.Last().Err)
		status := appErr.StatusCode()

		if appErr.Kind == apperrors.KindInternal {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(appErr))
		}

		details := appErr.Errors
		if details == nil {
			details = []string{}
		}

		c.JSON(status, errorResponse{
			StatusCode: status,
			Message:    appErr.Message,
			Success:    false,
			Errors:     details,
		})
	}
}
