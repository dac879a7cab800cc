package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/apperr"
	"github.com/madialex/accounthub/internal/http/middlewares"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// ErrorHandler is the single boundary that turns typed domain errors
// into the JSON error envelope. Handlers attach errors and abort; no
// handler writes error bodies itself, and stack traces never leave the
// process.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperr.From(c.Errors.Last().Err)

		if appErr.Status >= 500 {
			log.ErrorContext(c.Request.Context(), "request failed",
				"err", appErr.Err,
				"path", c.Request.URL.Path,
				"request_id", requestIDFrom(c),
			)
		}

		// a handler that already wrote a body keeps it
		if c.Writer.Written() {
			return
		}

		c.JSON(appErr.Status, gin.H{
			"error": APIError{
				Code:      appErr.Code,
				Message:   appErr.Message,
				RequestID: requestIDFrom(c),
				Details:   appErr.Details,
			},
		})
	}
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}
