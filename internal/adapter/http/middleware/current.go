package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasklist/internal/core/domain"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey   = "request_id"
	currentUserKey = "current_user"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)

		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func SetCurrentUser(c *gin.Context, user domain.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the account resolved by Authenticate. Handlers behind
// that middleware can rely on ok being true.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	value, exists := c.Get(currentUserKey)

	if !exists {
		return domain.User{}, false
	}

	user, ok := value.(domain.User)

	return user, ok
}
