package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so window tests do not sleep.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter() (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

var signIn = Policy{Name: "auth", Limit: 3, Window: time.Minute}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow(signIn, "203.0.113.1")
		require.True(t, ok, "request %d should be allowed", i+1)
	}
	ok, wait := rl.Allow(signIn, "203.0.113.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _ = rl.Allow(signIn, "203.0.113.2")
	assert.True(t, ok, "other clients have their own budget")
}

func TestRateLimiterPoliciesAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter()
	lookup := Policy{Name: "share-code", Limit: 1, Window: time.Minute}

	ok, _ := rl.Allow(lookup, "203.0.113.1")
	require.True(t, ok)
	ok, _ = rl.Allow(lookup, "203.0.113.1")
	require.False(t, ok)

	ok, _ = rl.Allow(signIn, "203.0.113.1")
	assert.True(t, ok)
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter()

	for i := 0; i < 4; i++ {
		rl.Allow(signIn, "k")
	}
	clock.t = clock.t.Add(40 * time.Second)
	ok, wait := rl.Allow(signIn, "k")
	require.False(t, ok)
	assert.Equal(t, 20*time.Second, wait)

	clock.t = clock.t.Add(20 * time.Second)
	ok, _ = rl.Allow(signIn, "k")
	assert.True(t, ok, "budget resets when the window ends")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter()
	short := Policy{Name: "short", Limit: 5, Window: time.Second}

	rl.Allow(short, "expired")
	clock.t = clock.t.Add(2 * time.Second)
	rl.Allow(signIn, "active")

	rl.Cleanup()
	assert.Equal(t, 1, rl.Len())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, ok := rl.buckets["auth|active"]
	assert.True(t, ok, "active bucket should survive")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter()
	var rejected []string
	rl.OnReject = func(p string) { rejected = append(rejected, p) }

	p := Policy{Name: "share-code", Limit: 2, Window: time.Minute}
	h := RateLimit(rl, p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sharing-codes/abc", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sharing-codes/abc", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"too many requests, try again shortly"}`, rec.Body.String())
	assert.Equal(t, []string{"share-code"}, rejected)
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.1"}, "10.0.0.1:1234", "198.51.100.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.5"},
		{"single forwarded", map[string]string{"X-Forwarded-For": " 203.0.113.6 "}, "10.0.0.1:1234", "203.0.113.6"},
		{"remote addr", nil, "192.0.2.7:5555", "192.0.2.7"},
		{"bare remote", nil, "192.0.2.8", "192.0.2.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, RealIP(req))
		})
	}
}
