package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/config"
	"tasklist/internal/core/model/response"
	"tasklist/internal/core/telemetry"
)

const defaultRateLimitRoute = "default"

type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]config.RateLimitConfig
	logger  *otelzap.Logger
	metrics *telemetry.AppMetrics
	now     func() time.Time
	mutex   sync.Mutex
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// NewRateLimiter counts requests per "METHOD /route" and caller in fixed
// windows. Callers are identified by account once authenticated and by
// client IP before that.
func NewRateLimiter(rules map[string]config.RateLimitConfig, logger *otelzap.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	configs := make(map[string]config.RateLimitConfig, len(rules)+1)
	for route, rule := range rules {
		configs[route] = rule
	}

	if _, ok := configs[defaultRateLimitRoute]; !ok {
		configs[defaultRateLimitRoute] = config.RateLimitConfig{Requests: 60, Window: time.Minute}
	}

	return &RateLimiter{
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		config:  configs,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		route := c.Request.Method + " " + path

		rule, exists := rl.config[route]
		if !exists {
			rule = rl.config[defaultRateLimitRoute]
		}

		identifier, keyType := rl.identify(c)
		key := fmt.Sprintf("rate_limit:%s:%s", route, identifier)

		allowed, remaining, resetTime := rl.checkRateLimit(key, rule)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Ctx(c.Request.Context()).Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rule.Requests),
				zap.Duration("window", rule.Window))

			retryAfter := int(resetTime.Sub(rl.now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{
				Error: response.ResponseError{
					Code: "RATE_LIMITED",
					Errors: []response.ValidationError{{
						Field:   "request",
						Message: fmt.Sprintf("Too many requests. Limit: %d per %v", rule.Requests, rule.Window),
					}},
					Details: gin.H{"retry_after": retryAfter},
				},
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string, rule config.RateLimitConfig) (bool, int, time.Time) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if cached, found := rl.cache.Get(key); found {
		entry := cached.(RateLimitEntry)

		if now.Before(entry.ResetTime) {
			if entry.Count >= rule.Requests {
				return false, 0, entry.ResetTime
			}

			entry.Count++
			rl.cache.Set(key, entry, entry.ResetTime.Sub(now))

			return true, rule.Requests - entry.Count, entry.ResetTime
		}
	}

	resetTime := now.Add(rule.Window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, rule.Window)

	return true, rule.Requests - 1, resetTime
}

func (rl *RateLimiter) identify(c *gin.Context) (string, string) {
	if user, ok := CurrentUser(c); ok {
		return fmt.Sprintf("user_%d", user.ID), "user"
	}

	return "ip_" + GetClientIP(c), "ip"
}

func (rl *RateLimiter) ActiveEntries() int {
	return rl.cache.ItemCount()
}

// GetClientIP honours X-Forwarded-For and X-Real-IP only when the request
// came through one of the engine's trusted proxies.
func GetClientIP(c *gin.Context) string {
	ip := c.ClientIP()

	if ip == "" {
		return "unknown"
	}

	return ip
}
