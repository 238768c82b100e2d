package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/config"
)

func cacheSetup(t *testing.T) (*echo.Echo, *redis.Client, config.CacheConfig, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{"GET": true},
		TTL:     30 * time.Second,
		Prefix:  "cache",
	}

	hits := 0
	e := echo.New()
	e.GET("/items", func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, echo.Map{"n": hits})
	}, NewRedisCache(cfg, rdb))
	return e, rdb, cfg, &hits
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCacheMissThenHit(t *testing.T) {
	e, _, _, hits := cacheSetup(t)

	first := get(e, "/items")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, 1, *hits)

	second := get(e, "/items")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, *hits, "handler must not run on a hit")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	e, _, _, hits := cacheSetup(t)

	get(e, "/items?page=1")
	get(e, "/items?page=2")
	assert.Equal(t, 2, *hits)

	get(e, "/items?page=1")
	assert.Equal(t, 2, *hits)
}

func TestCacheInvalidator(t *testing.T) {
	e, rdb, cfg, hits := cacheSetup(t)

	get(e, "/items")
	get(e, "/items")
	require.Equal(t, 1, *hits)

	inv := &CacheInvalidator{Prefix: cfg.Prefix, RDB: rdb}
	inv.Invalidate(context.Background())

	rec := get(e, "/items")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Second, Prefix: "cache"}
	hits := 0
	e := echo.New()
	e.GET("/items", func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, echo.Map{"n": hits})
	}, NewRedisCache(cfg, nil))

	get(e, "/items")
	get(e, "/items")
	assert.Equal(t, 2, hits)
}
