package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/config"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/telemetry"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	router.Use(handlers...)

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	router.GET("/todos/", ok)
	router.POST("/token", ok)

	return router
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	return serveFrom(router, method, path, "192.0.2.1:1234", headers)
}

func serveFrom(router *gin.Engine, method, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func nopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func TestRateLimitMiddleware_AllowedRequests(t *testing.T) {
	RegisterTestingT(t)

	rl := NewRateLimiter(config.GetDefaultConfig().RateLimitConfigs, nopLogger(), telemetry.NewAppMetrics(prometheus.NewRegistry()))
	router := newTestRouter(rl.RateLimitMiddleware())

	for i := 0; i < 5; i++ {
		w := serve(router, http.MethodPost, "/token", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("10"))
		Expect(w.Header().Get("X-RateLimit-Remaining")).ToNot(BeEmpty())
	}
}

func TestRateLimitMiddleware_ExceedLimit(t *testing.T) {
	RegisterTestingT(t)

	rules := map[string]config.RateLimitConfig{
		"POST /token": {Requests: 3, Window: time.Minute},
	}
	rl := NewRateLimiter(rules, nopLogger(), nil)
	router := newTestRouter(rl.RateLimitMiddleware())

	for i := 0; i < 3; i++ {
		Expect(serve(router, http.MethodPost, "/token", nil).Code).To(Equal(http.StatusOK))
	}

	w := serve(router, http.MethodPost, "/token", nil)
	Expect(w.Code).To(Equal(http.StatusTooManyRequests))
	Expect(w.Body.String()).To(ContainSubstring("RATE_LIMITED"))
	Expect(w.Header().Get("Retry-After")).ToNot(BeEmpty())

	other := serveFrom(router, http.MethodPost, "/token", "198.51.100.7:4321", nil)
	Expect(other.Code).To(Equal(http.StatusOK))
}

func TestRateLimitMiddleware_ForwardingHeadersFromUntrustedPeerShareBucket(t *testing.T) {
	RegisterTestingT(t)

	rl := NewRateLimiter(map[string]config.RateLimitConfig{
		"POST /token": {Requests: 2, Window: time.Minute},
	}, nopLogger(), nil)
	router := newTestRouter(rl.RateLimitMiddleware())

	rejected := 0
	for i := 0; i < 50; i++ {
		w := serveFrom(router, http.MethodPost, "/token", "203.0.113.9:5555", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP":       fmt.Sprintf("10.1.0.%d", i),
		})
		if w.Code == http.StatusTooManyRequests {
			rejected++
		}
	}

	Expect(rejected).To(Equal(48))
	Expect(rl.ActiveEntries()).To(Equal(1))
}

func TestRateLimitMiddleware_TrustedProxyForwardsClientAddress(t *testing.T) {
	RegisterTestingT(t)

	rl := NewRateLimiter(map[string]config.RateLimitConfig{
		"POST /token": {Requests: 1, Window: time.Minute},
	}, nopLogger(), nil)
	router := newTestRouter(rl.RateLimitMiddleware())
	Expect(router.SetTrustedProxies([]string{"10.0.0.0/8"})).To(Succeed())

	viaProxy := func(client string) int {
		return serveFrom(router, http.MethodPost, "/token", "10.0.0.2:443", map[string]string{"X-Forwarded-For": client}).Code
	}

	Expect(viaProxy("203.0.113.1")).To(Equal(http.StatusOK))
	Expect(viaProxy("203.0.113.2")).To(Equal(http.StatusOK))
	Expect(viaProxy("203.0.113.1")).To(Equal(http.StatusTooManyRequests))
}

func TestRateLimitMiddleware_WindowResets(t *testing.T) {
	RegisterTestingT(t)

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(map[string]config.RateLimitConfig{
		"POST /token": {Requests: 1, Window: time.Minute},
	}, nopLogger(), nil)
	rl.now = func() time.Time { return now }

	router := newTestRouter(rl.RateLimitMiddleware())

	Expect(serve(router, http.MethodPost, "/token", nil).Code).To(Equal(http.StatusOK))
	Expect(serve(router, http.MethodPost, "/token", nil).Code).To(Equal(http.StatusTooManyRequests))

	now = now.Add(61 * time.Second)
	Expect(serve(router, http.MethodPost, "/token", nil).Code).To(Equal(http.StatusOK))
}

func TestRateLimitMiddleware_KeysByUserWhenAuthenticated(t *testing.T) {
	RegisterTestingT(t)

	rl := NewRateLimiter(map[string]config.RateLimitConfig{
		"GET /todos/": {Requests: 1, Window: time.Minute},
	}, nopLogger(), nil)

	asUser := func(c *gin.Context) {
		id := int64(1)
		if c.GetHeader("X-Test-User") == "2" {
			id = 2
		}
		SetCurrentUser(c, domain.User{ID: id})
	}

	router := newTestRouter(asUser, rl.RateLimitMiddleware())

	Expect(serve(router, http.MethodGet, "/todos/", nil).Code).To(Equal(http.StatusOK))
	Expect(serve(router, http.MethodGet, "/todos/", nil).Code).To(Equal(http.StatusTooManyRequests))
	Expect(serve(router, http.MethodGet, "/todos/", map[string]string{"X-Test-User": "2"}).Code).To(Equal(http.StatusOK))
}

func TestBearerToken(t *testing.T) {
	RegisterTestingT(t)

	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc.def.ghi": {"abc.def.ghi", true},
		"bearer abc":         {"abc", true},
		"Basic abc":          {"", false},
		"Bearer":             {"", false},
		"Bearer   ":          {"", false},
		"":                   {"", false},
	}

	for header, want := range cases {
		token, ok := bearerToken(header)

		Expect(ok).To(Equal(want.ok), header)
		Expect(token).To(Equal(want.token), header)
	}
}

func TestCORS(t *testing.T) {
	RegisterTestingT(t)

	router := newTestRouter(CORS([]string{"http://localhost:3000"}))

	w := serve(router, http.MethodGet, "/todos/", map[string]string{"Origin": "http://localhost:3000"})
	Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))

	w = serve(router, http.MethodGet, "/todos/", map[string]string{"Origin": "http://evil.example"})
	Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())

	w = serve(router, http.MethodOptions, "/todos/", map[string]string{"Origin": "http://localhost:3000"})
	Expect(w.Code).To(Equal(http.StatusNoContent))
}

func TestHTTPSEnforcer(t *testing.T) {
	RegisterTestingT(t)

	disabled := newTestRouter(NewHTTPSEnforcer(false, nopLogger()).HTTPSMiddleware())
	Expect(serve(disabled, http.MethodGet, "http://api.example.com/todos/", nil).Code).To(Equal(http.StatusOK))

	enabled := newTestRouter(NewHTTPSEnforcer(true, nopLogger()).HTTPSMiddleware())

	w := serve(enabled, http.MethodGet, "http://api.example.com/todos/?skip=1", nil)
	Expect(w.Code).To(Equal(http.StatusMovedPermanently))
	Expect(w.Header().Get("Location")).To(Equal("https://api.example.com/todos/?skip=1"))

	w = serve(enabled, http.MethodGet, "http://api.example.com/todos/", map[string]string{"X-Forwarded-Proto": "https"})
	Expect(w.Code).To(Equal(http.StatusOK))

	w = serve(enabled, http.MethodGet, "http://localhost:8080/todos/", nil)
	Expect(w.Code).To(Equal(http.StatusOK))
}

func TestRequestID(t *testing.T) {
	RegisterTestingT(t)

	router := newTestRouter(RequestID())

	w := serve(router, http.MethodGet, "/todos/", nil)
	Expect(w.Header().Get(RequestIDHeader)).To(HaveLen(36))

	w = serve(router, http.MethodGet, "/todos/", map[string]string{RequestIDHeader: "abc-123"})
	Expect(w.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
}
