package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/cache"
	appErrors "github.com/openmakers/badgegate/pkg/errors"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func ping(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clk.Now))

	r := gin.New()
	r.Use(RateLimit(store, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, ping(r).Code)
	}

	w := ping(r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"Too many requests."}`, w.Body.String())
	require.Equal(t, appErrors.ErrRateLimit.StatusCode, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	clk.now = clk.now.Add(61 * time.Second)
	require.Equal(t, http.StatusOK, ping(r).Code)
}

func TestRateLimitSharedThroughRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedisStore(client)

	first := gin.New()
	first.Use(RateLimit(store, 1, time.Minute))
	first.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	second := gin.New()
	second.Use(RateLimit(store, 1, time.Minute))
	second.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, ping(first).Code)
	require.Equal(t, http.StatusTooManyRequests, ping(second).Code)
}

type brokenStore struct{}

func (brokenStore) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("unavailable")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (brokenStore) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (brokenStore) Delete(context.Context, ...string) error                   { return nil }

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(brokenStore{}, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ping(r).Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, ping(r).Code)
	}
}
