package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinecritique/review-api/internal/config"
)

func limitCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour, // no refill within a test run
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	}
}

func TestBuildRateKeyUsesAuthenticatedIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/profile", nil), httptest.NewRecorder())
	c.SetPath("/api/profile")

	anon := buildRateKey(limitCfg(), c)
	assert.Contains(t, anon, ":user:anon:")

	c.Set("user_id", uint64(42))
	authed := buildRateKey(limitCfg(), c)
	assert.Contains(t, authed, ":user:42:")
	assert.NotEqual(t, anon, authed, "authenticated callers get their own bucket")
}

func newLimitedEcho(t *testing.T, cfg config.RateLimitConfig, userID uint64) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	identify := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != 0 {
				c.Set("user_id", userID)
			}
			return next(c)
		}
	}
	e.GET("/x", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, identify, NewTokenBucket(cfg, rdb))
	return e
}

func hit(e *echo.Echo) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	return rec
}

func TestTokenBucketAllowsThenBlocks(t *testing.T) {
	e := newLimitedEcho(t, limitCfg(), 0)

	for i := 0; i < 2; i++ {
		rec := hit(e)
		require.Equal(t, http.StatusOK, rec.Code, "request %d fits in the bucket", i+1)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := hit(e)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")
}

func TestTokenBucketKeysPerUser(t *testing.T) {
	cfg := limitCfg()
	cfg.KeyStrategy = "user"

	// Share one Redis between two identities to show their buckets are
	// independent.
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	limiter := NewTokenBucket(cfg, rdb)
	asUser := func(id uint64) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set("user_id", id)
				return next(c)
			}
		}
	}
	e.GET("/a", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, asUser(1), limiter)
	e.GET("/b", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, asUser(2), limiter)

	do := func(path string) int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	// User 1 drains their bucket.
	require.Equal(t, http.StatusOK, do("/a"))
	require.Equal(t, http.StatusOK, do("/a"))
	require.Equal(t, http.StatusTooManyRequests, do("/a"))

	// User 2 is unaffected.
	assert.Equal(t, http.StatusOK, do("/b"))
}

func TestTokenBucketDisabledPassthrough(t *testing.T) {
	cfg := limitCfg()
	cfg.Enabled = false
	mw := NewTokenBucket(cfg, nil)

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)

	for i := 0; i < 10; i++ {
		rec := hit(e)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.TrimSpace(rec.Header().Get("Retry-After")) == "")
	}
}
