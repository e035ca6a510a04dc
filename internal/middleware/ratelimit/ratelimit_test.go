package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestLimiterWindow(t *testing.T) {
	rl, c := newTestLimiter(t, 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per client")

	// Steady traffic does not extend the window.
	c.t = c.t.Add(59 * time.Second)
	assert.False(t, rl.Allow("a"))
	c.t = c.t.Add(time.Second)
	assert.True(t, rl.Allow("a"))

	m := rl.GetMetrics()
	assert.Equal(t, int64(2), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestLimiterCleanup(t *testing.T) {
	rl, c := newTestLimiter(t, 5)

	rl.Allow("a")
	c.t = c.t.Add(11 * time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestLimiterStopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestMiddlewareLimitsListedMethods(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "1.2.3.4" }
	h := rl.Middleware(ip, nil, http.MethodPost)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/transactions", nil))
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, serve(http.MethodPost))
	assert.Equal(t, http.StatusOK, serve(http.MethodGet))
	assert.Equal(t, http.StatusOK, serve(http.MethodGet))
}

func TestMiddlewareCustomOnLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "1.2.3.4" }
	onLimit := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }
	h := rl.Middleware(ip, onLimit)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusServiceUnavailable} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, want, rr.Code, "request %d", i)
	}
}
