package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, client
}

func TestRedisLimiter_Window(t *testing.T) {
	t.Parallel()

	server, client := newTestRedis(t)
	limiter := NewRedisLimiter(client, "test")
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "auth:192.0.2.1", 2)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := limiter.Allow(ctx, "auth:192.0.2.1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "auth:192.0.2.2", 2)
	require.NoError(t, err)
	assert.True(t, ok, "other keys keep their own count")

	key := "test:auth:192.0.2.1:" + "28333333"
	assert.True(t, server.Exists(key))
	assert.Equal(t, 2*time.Minute, server.TTL(key))

	now = now.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "auth:192.0.2.1", 2)
	require.NoError(t, err)
	assert.True(t, ok, "next window starts fresh")
}

func TestRedisLimiter_Middleware(t *testing.T) {
	t.Parallel()

	_, client := newTestRedis(t)
	handler := NewRateLimitMiddleware(NewRedisLimiter(client, ""), 5, 1).Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int) (bool, error) {
	return false, errors.New("connection refused")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(failingLimiter{}, 1, 1).Handler(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
