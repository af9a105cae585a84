package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/api"
	"github.com/openmakers/badgegate/internal/app"
	"github.com/openmakers/badgegate/internal/assignments"
	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/internal/catalog"
	sharedtestutil "github.com/openmakers/badgegate/internal/database/testutil"
	"github.com/openmakers/badgegate/internal/fallback"
	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/links"
	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/internal/monitoring"
	"github.com/openmakers/badgegate/internal/monitoring/checks"
	"github.com/openmakers/badgegate/internal/services"
)

// FallbackSecret is the export secret configured for test environments.
const FallbackSecret = "test-fallback-secret"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Config   *app.Config
	Fallback *fallback.Cache
	Store    *cache.MemoryStore
}

// EnvOption customises the configuration before the router is built.
type EnvOption func(*app.Config)

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{
			RateLimit: app.RateLimitConfig{Enabled: false, Requests: 100, Window: time.Minute},
		},
		Access: app.AccessConfig{
			CheckUserExists:        true,
			CheckUserStatus:        true,
			CheckPausePayment:      true,
			CheckUserHasPermission: true,
			CheckBadgeStatus:       true,
			AllowedRoles:           access.DefaultAllowedRoles,
		},
		Fallback: app.FallbackConfig{
			Secret:       FallbackSecret,
			CacheEnabled: true,
			CacheMaxAge:  900,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, ProbeTimeout: time.Second},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret:   "test-suite-super-secret-key-32-bytes!!",
				Issuer:   "test-suite",
				Audience: "test-admin",
				TTL:      time.Hour,
			},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	members, err := identity.NewRepository(db)
	require.NoError(t, err)
	badges, err := catalog.New(db, catalog.WithMemoTTL(0))
	require.NoError(t, err)
	held, err := assignments.NewStore(db)
	require.NoError(t, err)
	accessLogs, err := services.NewAccessLogService(db)
	require.NoError(t, err)

	reporter := monitoring.NewReporter(zap.NewNop())
	accessSettings := cfg.Access.Settings()

	evaluator, err := access.NewEvaluator(members, badges, held, accessLogs, reporter, accessSettings)
	require.NoError(t, err)
	status, err := access.NewStatusReporter(badges, held, accessSettings)
	require.NoError(t, err)

	fallbackSettings := cfg.Fallback.Settings(accessSettings)
	builder, err := fallback.NewBuilder(members, badges, held, fallbackSettings)
	require.NoError(t, err)
	store := cache.NewMemoryStore()
	snapshots, err := fallback.NewCache(builder, store, fallbackSettings, reporter)
	require.NoError(t, err)

	registry, err := links.NewRegistry(links.AccessControlProvider("/api/admin"))
	require.NoError(t, err)

	health := monitoring.NewHealthManager(cfg.Monitoring.Health.ProbeTimeout)
	health.RegisterReadiness(checks.Database(db, time.Second))

	router, err := api.NewRouter(api.Dependencies{
		Config:     cfg,
		JWT:        jwtSvc,
		Evaluator:  evaluator,
		Members:    members,
		Badges:     badges,
		Fallback:   snapshots,
		AccessLogs: accessLogs,
		Status:     status,
		Links:      registry,
		Health:     health,
		Reporter:   reporter,
		RateStore:  store,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Config:   cfg,
		Fallback: snapshots,
		Store:    store,
	}
}

// Request performs an HTTP request against the router. An empty token sends no Authorization header.
func (e *Env) Request(method, path string, header http.Header, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	req := httptest.NewRequest(method, path, nil)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// Token issues an admin token carrying the given permissions.
func (e *Env) Token(permissions ...string) string {
	e.T.Helper()

	token, err := e.JWT.Issue(iauth.TokenInput{AdminID: "test-admin", Permissions: permissions})
	require.NoError(e.T, err)
	return token
}

// CreateMember inserts member, defaulting its roles to "member".
func (e *Env) CreateMember(member models.Member) *models.Member {
	e.T.Helper()

	if member.Roles == nil {
		member.Roles = []string{"member"}
	}
	require.NoError(e.T, e.DB.Create(&member).Error)
	return &member
}

// CreateBadge inserts a badge catalog entry.
func (e *Env) CreateBadge(name, textID string) *models.Badge {
	e.T.Helper()

	badge := models.Badge{Name: name, TextID: textID}
	require.NoError(e.T, e.DB.Create(&badge).Error)
	return &badge
}

// Assign records a badge request with the given status.
func (e *Env) Assign(member *models.Member, badge *models.Badge, status string) {
	e.T.Helper()

	require.NoError(e.T, e.DB.Create(&models.BadgeRequest{
		MemberID: member.ID,
		BadgeID:  badge.ID,
		Status:   status,
	}).Error)
}
