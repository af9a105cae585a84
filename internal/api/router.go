package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openmakers/badgegate/internal/app"
	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/internal/handlers"
	"github.com/openmakers/badgegate/internal/middleware"
	"github.com/openmakers/badgegate/internal/monitoring"
)

// FallbackStore serves and manages the cached fallback snapshot.
type FallbackStore interface {
	handlers.SnapshotProvider
	handlers.FallbackController
}

// Dependencies bundles the collaborators wired into the HTTP handlers.
type Dependencies struct {
	Config     *app.Config
	JWT        *iauth.JWTService
	Evaluator  handlers.AccessEvaluator
	Members    handlers.MemberLookup
	Badges     handlers.BadgeLister
	Fallback   FallbackStore
	AccessLogs handlers.AccessLogLister
	Status     handlers.StatusSummarizer
	Links      handlers.LinkSource
	Health     *monitoring.HealthManager
	Reporter   *monitoring.Reporter
	// RateStore backs the terminal rate limiter. Nil disables rate limiting.
	RateStore cache.Store
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return errors.New("router: config must be provided")
	case d.JWT == nil:
		return errors.New("router: jwt service must be provided")
	case d.Evaluator == nil:
		return errors.New("router: access evaluator must be provided")
	case d.Members == nil:
		return errors.New("router: member lookup must be provided")
	case d.Badges == nil:
		return errors.New("router: badge lister must be provided")
	case d.Fallback == nil:
		return errors.New("router: fallback store must be provided")
	case d.AccessLogs == nil:
		return errors.New("router: access log lister must be provided")
	case d.Status == nil:
		return errors.New("router: status summarizer must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Reporter))
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, deps.Health)

	terminal := r.Group("/api")
	if cfg.Server.RateLimit.Enabled && deps.RateStore != nil {
		terminal.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}
	if err := registerTerminalRoutes(terminal, deps); err != nil {
		return nil, err
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.Auth(deps.JWT))
	if err := registerAdminRoutes(admin, deps); err != nil {
		return nil, err
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
