package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	rl.lastCleanup = clock

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients have separate buckets")

	clock = clock.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "bucket refills over time")

	clock = clock.Add(visitorTTL + cleanupInterval)
	rl.Allow("10.0.0.3")
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.visitors, 1, "idle clients are dropped")
}

func TestRateLimiter_SignIn(t *testing.T) {
	env := setupTestServer(t, func(opts *Options) {
		opts.RateLimitRPS = 0.001
		opts.RateLimitBurst = 1
	})

	c := env.anonymousClient()
	body := map[string]any{"username": "ghost", "password": "whatever"}
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/users/session", body).Code)

	res := c.do(http.MethodPost, "/api/users/session", body)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.NotEmpty(t, res.Header().Get("Retry-After"))
}
