package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{name: "exact match", origin: "https://app.example.com", allowedOrigins: []string{"https://app.example.com"}, want: true},
		{name: "wildcard match", origin: "https://app.example.com", allowedOrigins: []string{"https://*"}, want: true},
		{name: "second entry", origin: "http://localhost:3000", allowedOrigins: []string{"https://*", "http://localhost:3000"}, want: true},
		{name: "no match", origin: "http://evil.com", allowedOrigins: []string{"https://*"}, want: false},
		{name: "empty origin", origin: "", allowedOrigins: []string{"*"}, want: false},
		{name: "empty allowed list", origin: "https://app.example.com", allowedOrigins: []string{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAllowedOrigin(tt.origin, tt.allowedOrigins); got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newTestRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": c.GetString(ctxTenantID)})
	})
	return router
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(CORSMiddleware([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(RequestIDMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestTenantMiddleware(t *testing.T) {
	router := newTestRouter(TenantMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"X-Tenant-ID header is required"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderTenantID, "acme")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant":"acme"}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newTestRouter(RateLimitMiddleware(0.001, 2))

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	unlimited := newTestRouter(RateLimitMiddleware(0, 0))
	for range 5 {
		w := httptest.NewRecorder()
		unlimited.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestClientLimitersDropIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	limiters := newClientLimiters(rate.Limit(1), 1, clock)

	limiters.get("10.0.0.1")
	kept := limiters.get("10.0.0.2")

	now = now.Add(5 * time.Minute)
	assert.Same(t, kept, limiters.get("10.0.0.2"))
	assert.Len(t, limiters.byKey, 2, "nothing is idle long enough yet")

	now = now.Add(6 * time.Minute)
	limiters.get("10.0.0.3")
	assert.Len(t, limiters.byKey, 2)
	assert.NotContains(t, limiters.byKey, "10.0.0.1")
	assert.Same(t, kept, limiters.get("10.0.0.2"), "recently seen clients keep their limiter")
}

func TestClientLimitersIdleCoversRefill(t *testing.T) {
	limiters := newClientLimiters(rate.Limit(0.5), 1000, time.Now)
	assert.Equal(t, 2000*time.Second, limiters.idle)
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := newTestRouter(RequestIDMiddleware(), LoggerMiddleware(zap.New(core)), TenantMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderTenantID, "acme")
	req.Header.Set(HeaderRequestID, "req-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		first := entries[0].ContextMap()
		assert.Equal(t, "req-1", first["request_id"])
		assert.Equal(t, "acme", first["tenant_id"])
		assert.EqualValues(t, http.StatusOK, first["status"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}
