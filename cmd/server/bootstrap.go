package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/api"
	"github.com/openmakers/badgegate/internal/app"
	"github.com/openmakers/badgegate/internal/app/maintenance"
	"github.com/openmakers/badgegate/internal/assignments"
	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/internal/catalog"
	"github.com/openmakers/badgegate/internal/database"
	"github.com/openmakers/badgegate/internal/fallback"
	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/links"
	"github.com/openmakers/badgegate/internal/monitoring"
	"github.com/openmakers/badgegate/internal/monitoring/checks"
	"github.com/openmakers/badgegate/internal/services"
	"github.com/openmakers/badgegate/pkg/logger"
)

// adminBasePath is where admin links point.
const adminBasePath = "/api/admin"

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Store     cache.Store
	Fallback  *fallback.Cache
	Scheduler *maintenance.Scheduler
	Health    *monitoring.HealthManager
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, cache backend, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	purger := stack.selectStore(ctx, cfg, log)

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	members, err := identity.NewRepository(stack.DB)
	if err != nil {
		return nil, err
	}
	badges, err := catalog.New(stack.DB, catalog.WithMemoTTL(cfg.Access.CatalogMemoTTL))
	if err != nil {
		return nil, err
	}
	held, err := assignments.NewStore(stack.DB)
	if err != nil {
		return nil, err
	}
	accessLogs, err := services.NewAccessLogService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise access log service: %w", err)
	}

	reporter := monitoring.NewReporter(nil)
	accessSettings := cfg.Access.Settings()

	evaluator, err := access.NewEvaluator(members, badges, held, accessLogs, reporter, accessSettings)
	if err != nil {
		return nil, err
	}
	status, err := access.NewStatusReporter(badges, held, accessSettings)
	if err != nil {
		return nil, err
	}

	fallbackSettings := cfg.Fallback.Settings(accessSettings)
	builder, err := fallback.NewBuilder(members, badges, held, fallbackSettings)
	if err != nil {
		return nil, err
	}
	stack.Fallback, err = fallback.NewCache(builder, stack.Store, fallbackSettings, reporter)
	if err != nil {
		return nil, err
	}

	registry, err := links.NewRegistry(links.AccessControlProvider(adminBasePath))
	if err != nil {
		return nil, err
	}

	var warmer maintenance.Warmer
	if stack.Fallback.Enabled() {
		warmer = stack.Fallback
	}
	stack.Scheduler = maintenance.NewScheduler(warmer, purger,
		maintenance.WithWarmSchedule(cfg.Fallback.WarmSchedule),
		maintenance.WithPurgeSchedule(cfg.Cache.PurgeSchedule),
		maintenance.WithJobBudget(cfg.Monitoring.MaintenanceJobBudget),
	)
	if err := stack.Scheduler.RunOnce(ctx); err != nil {
		log.Warn("initial maintenance run failed", zap.Error(err))
	}
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Health = buildHealthManager(cfg, stack)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:     cfg,
		JWT:        jwtSvc,
		Evaluator:  evaluator,
		Members:    members,
		Badges:     badges,
		Fallback:   stack.Fallback,
		AccessLogs: accessLogs,
		Status:     status,
		Links:      registry,
		Health:     stack.Health,
		Reporter:   reporter,
		RateStore:  stack.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// selectStore picks the key/value backend. An unreachable Redis falls back to the database store.
// The returned purger is non-nil only for the database store.
func (s *runtimeStack) selectStore(ctx context.Context, cfg *app.Config, log *zap.Logger) maintenance.Purger {
	switch cfg.Cache.BackendName() {
	case app.CacheBackendMemory:
		s.Store = cache.NewMemoryStore()
		log.Info("cache backend selected", zap.String("backend", app.CacheBackendMemory))
		return nil
	case app.CacheBackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig())
		if err == nil {
			s.Redis = client
			s.Store = cache.NewRedisStore(client)
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return nil
		}
		log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
	}

	store := cache.NewDatabaseStore(s.DB)
	s.Store = store
	log.Info("cache backend selected", zap.String("backend", app.CacheBackendDatabase))
	return store
}

func buildHealthManager(cfg *app.Config, stack *runtimeStack) *monitoring.HealthManager {
	timeout := cfg.Monitoring.Health.ProbeTimeout
	manager := monitoring.NewHealthManager(timeout)

	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))

	manager.RegisterReadiness(checks.Database(stack.DB, timeout))

	var client redis.UniversalClient
	if stack.Redis != nil {
		client = stack.Redis
	}
	manager.RegisterReadiness(checks.Redis(client, cfg.Cache.UsesRedis(), timeout))
	manager.RegisterReadiness(checks.Maintenance(cfg.Monitoring.MaintenanceMaxAge))

	return manager
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Prepare(db); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
