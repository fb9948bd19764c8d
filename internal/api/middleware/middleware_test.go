package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
)

type httpObservation struct {
	method, route string
	status        int
}

type fakeMetrics struct {
	mu          sync.Mutex
	requests    []httpObservation
	rateLimited int
}

func (m *fakeMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, httpObservation{method, route, status})
}

func (m *fakeMetrics) IncRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", seen)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := &fakeMetrics{}
	router := mux.NewRouter()
	router.Use(Metrics(m))
	router.HandleFunc("/api/v1/slots/{slotId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/slots/17", nil))

	require.Len(t, m.requests, 1)
	assert.Equal(t, httpObservation{http.MethodGet, "/api/v1/slots/{slotId}", http.StatusNotFound}, m.requests[0])
}

func TestRateLimit_LocalLimiter(t *testing.T) {
	m := &fakeMetrics{}
	limiter := NewLocalLimiter(RateLimitConfig{Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour})
	h := RateLimit(limiter, 2, m, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remoteAddr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil)
		r.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001").Code)

	blocked := call("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Equal(t, "2", blocked.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, 1, m.rateLimited)

	// Другой клиент имеет свою корзину
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000").Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func TestFallbackLimiter(t *testing.T) {
	local := NewLocalLimiter(RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour})
	limiter := NewFallbackLimiter(failingLimiter{}, local, logger.NewNop())

	d, err := limiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestRateLimit_LimiterErrorPassesThrough(t *testing.T) {
	h := RateLimit(failingLimiter{}, 10, nil, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.5:4242"
	assert.Equal(t, "192.168.1.5", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(r))
}
