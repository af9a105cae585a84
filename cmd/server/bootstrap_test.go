package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/app"
	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/pkg/crypto"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()
	return &app.Config{
		Server: app.ServerConfig{
			Port:      8000,
			RateLimit: app.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
		},
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "badgegate.sqlite"),
		},
		Cache: app.CacheConfig{Backend: app.CacheBackendMemory, PurgeSchedule: "@every 1h"},
		Access: app.AccessConfig{
			CheckUserExists:        true,
			CheckUserStatus:        true,
			CheckPausePayment:      true,
			CheckUserHasPermission: true,
			CheckBadgeStatus:       true,
		},
		Fallback: app.FallbackConfig{CacheEnabled: true, CacheMaxAge: 900, WarmSchedule: "@every 10m"},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, ProbeTimeout: time.Second},
		},
		Auth: app.AuthConfig{JWT: app.JWTSettings{Secret: "bootstrap-test-secret", Issuer: "badgegate", TTL: time.Minute}},
	}
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), log) })

	require.IsType(t, &cache.MemoryStore{}, stack.Store)
	require.True(t, stack.Fallback.Enabled())

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fallback/store", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSelectStoreDefaultsToDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = app.CacheBackendDatabase

	db, err := initialiseDatabase(cfg)
	require.NoError(t, err)
	stack := &runtimeStack{DB: db}
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	purger := stack.selectStore(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, purger)
	require.IsType(t, &cache.DatabaseStore{}, stack.Store)
}

func TestSelectStoreUsesRedisWhenReachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Backend = app.CacheBackendRedis
	cfg.Cache.Redis = app.RedisCacheConfig{Address: mr.Addr(), Timeout: time.Second}

	db, err := initialiseDatabase(cfg)
	require.NoError(t, err)
	stack := &runtimeStack{DB: db}
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	purger := stack.selectStore(context.Background(), cfg, zap.NewNop())
	require.Nil(t, purger)
	require.NotNil(t, stack.Redis)
	require.IsType(t, &cache.RedisStore{}, stack.Store)
}

func TestSelectStoreFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Cache.Backend = app.CacheBackendRedis
	cfg.Cache.Redis = app.RedisCacheConfig{Address: addr, Timeout: 200 * time.Millisecond}

	db, err := initialiseDatabase(cfg)
	require.NoError(t, err)
	stack := &runtimeStack{DB: db}
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	purger := stack.selectStore(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, purger)
	require.Nil(t, stack.Redis)
	require.IsType(t, &cache.DatabaseStore{}, stack.Store)
}

func TestRunHashSecret(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-hash-secret", "terminal-secret"}, &out))

	hash := strings.TrimSpace(out.String())
	require.True(t, crypto.IsHashedSecret(hash))
	require.True(t, crypto.SecretMatches(hash, "terminal-secret"))
}

func TestRunIssueToken(t *testing.T) {
	dir := t.TempDir()
	config := "auth:\n  jwt:\n    secret: issue-token-secret\n    issuer: badgegate\n    audience: badgegate-admin\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-config", dir,
		"-issue-token", "alice",
		"-permissions", "access_logs.view, fallback.manage",
	}, &out)
	require.NoError(t, err)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:   "issue-token-secret",
		Issuer:   "badgegate",
		Audience: "badgegate-admin",
	})
	require.NoError(t, err)

	claims, err := jwtSvc.Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, "alice", claims.AdminID)
	require.Equal(t, []string{iauth.PermissionViewAccessLogs, iauth.PermissionManageFallback}, claims.Permissions)
}

func TestRunIssueTokenRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 8000\n"), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", dir, "-issue-token", "alice"}, &out)
	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
