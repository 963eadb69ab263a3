package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/adapter/http/helper"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
	"tasklist/internal/core/telemetry"
)

// Authenticate resolves the bearer token to an account and stores it for the
// handlers. Requests without a valid session never reach them.
func Authenticate(sessions port.SessionResolver, metrics *telemetry.AppMetrics, logger *otelzap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, ok := bearerToken(c.GetHeader("Authorization"))

		if !ok {
			recordAuthFailure(c, metrics, "missing_token")
			helper.SendUnauthorizedError(c, "Not authenticated")
			return
		}

		user, err := sessions.Resolve(ctx, token)

		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				recordAuthFailure(c, metrics, failureReason(err))
				helper.SendUnauthorizedError(c, domain.ErrUnauthenticated.Error())
				return
			}

			logger.Ctx(ctx).Error("Failed to resolve session", zap.Error(err))
			helper.SendInternalError(c, "Internal server error")
			return
		}

		SetCurrentUser(c, user)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")

	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return "token_invalid"
	}

	return "unknown_subject"
}

func recordAuthFailure(c *gin.Context, metrics *telemetry.AppMetrics, reason string) {
	if metrics != nil {
		metrics.RecordAuthFailure(c.Request.Context(), reason)
	}
}
