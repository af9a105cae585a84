package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/monitoring"
	"github.com/openmakers/badgegate/pkg/logger"
)

const (
	defaultWarmSpec  = "@every 10m"
	defaultPurgeSpec = "@every 1h"
	defaultJobBudget = 2 * time.Minute

	// JobWarmFallback rebuilds the fallback snapshot ahead of terminal requests.
	JobWarmFallback = "fallback_warm"
	// JobPurgeCache deletes expired rows from the SQL cache table.
	JobPurgeCache = "cache_purge"
)

// Warmer rebuilds the cached fallback snapshot.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Purger removes expired cache entries and reports how many were deleted.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler runs background jobs that keep the fallback cache warm and the cache table small.
type Scheduler struct {
	warmer Warmer
	purger Purger
	cron   *cron.Cron
	log    *zap.Logger
	budget time.Duration

	warmSchedule  string
	purgeSchedule string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithWarmSchedule overrides the cron expression for cache warming.
func WithWarmSchedule(expr string) Option {
	return func(s *Scheduler) {
		if expr != "" {
			s.warmSchedule = expr
		}
	}
}

// WithPurgeSchedule overrides the cron expression for the expired entry purge.
func WithPurgeSchedule(expr string) Option {
	return func(s *Scheduler) {
		if expr != "" {
			s.purgeSchedule = expr
		}
	}
}

// WithJobBudget bounds how long a single job run may take.
func WithJobBudget(budget time.Duration) Option {
	return func(s *Scheduler) {
		if budget > 0 {
			s.budget = budget
		}
	}
}

// WithLogger overrides the scheduler logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScheduler constructs a Scheduler. A nil warmer or purger skips the corresponding job.
func NewScheduler(warmer Warmer, purger Purger, opts ...Option) *Scheduler {
	s := &Scheduler{
		warmer:        warmer,
		purger:        purger,
		budget:        defaultJobBudget,
		warmSchedule:  defaultWarmSpec,
		purgeSchedule: defaultPurgeSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	}
	return s
}

// Start registers the enabled jobs and launches the scheduler.
func (s *Scheduler) Start() error {
	if s.warmer == nil && s.purger == nil {
		return nil
	}

	if s.warmer != nil {
		if _, err := s.cron.AddFunc(s.warmSchedule, func() { _ = s.runWarm(context.Background()) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", JobWarmFallback, err)
		}
	}
	if s.purger != nil {
		if _, err := s.cron.AddFunc(s.purgeSchedule, func() { _ = s.runPurge(context.Background()) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", JobPurgeCache, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every configured job sequentially, used at startup and in tests.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.warmer != nil {
		errs = multierr.Append(errs, s.runWarm(ctx))
	}
	if s.purger != nil {
		errs = multierr.Append(errs, s.runPurge(ctx))
	}
	return errs
}

func (s *Scheduler) runWarm(ctx context.Context) error {
	return s.run(ctx, JobWarmFallback, func(ctx context.Context) error {
		return s.warmer.Warm(ctx)
	})
}

func (s *Scheduler) runPurge(ctx context.Context) error {
	return s.run(ctx, JobPurgeCache, func(ctx context.Context) error {
		removed, err := s.purger.PurgeExpired(ctx)
		if err == nil && removed > 0 {
			s.log.Info("purged expired cache entries", zap.Int64("removed", removed))
		}
		return err
	})
}

func (s *Scheduler) run(ctx context.Context, job string, fn func(context.Context) error) error {
	runCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	start := time.Now()
	err := fn(runCtx)
	duration := time.Since(start)

	if err != nil {
		result := "failure"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		monitoring.RecordMaintenanceRun(job, result, err.Error(), duration)
		s.log.Warn("maintenance job failed", zap.String("job", job), zap.Duration("duration", duration), zap.Error(err))
		return fmt.Errorf("maintenance: %s: %w", job, err)
	}

	monitoring.RecordMaintenanceRun(job, "success", "", duration)
	return nil
}
