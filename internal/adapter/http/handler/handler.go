package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	. "tasklist/internal/adapter/http/helper"
	"tasklist/internal/adapter/http/middleware"
)

// sendError writes the mapped response for core errors and logs everything
// else as an internal failure without exposing it.
func sendError(c *gin.Context, logger *otelzap.Logger, err error, operation string) {
	if SendDomainError(c, err) {
		return
	}

	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	if user, ok := middleware.CurrentUser(c); ok {
		fields = append(fields, zap.Int64("user_id", user.ID))
	}

	logger.Ctx(c.Request.Context()).Error("Request failed", fields...)

	SendInternalError(c, "Internal server error")
}
