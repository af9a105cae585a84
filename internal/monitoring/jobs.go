package monitoring

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openmakers/badgegate/pkg/metrics"
)

// JobSummary describes the run history of a scheduled job.
type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

type jobStats struct {
	lastStatus          atomic.Value // string
	lastError           atomic.Value // string
	lastRun             atomic.Int64 // unix nano
	lastDuration        atomic.Int64 // nanoseconds
	consecutiveFailures atomic.Uint64
	totalRuns           atomic.Uint64
	lastSuccessfulRun   atomic.Int64
}

var jobs sync.Map // string -> *jobStats

// RecordMaintenanceRun records the completion of a scheduled job.
func RecordMaintenanceRun(job, result, message string, duration time.Duration) {
	job = normalizeLabel(job)
	result = normalizeLabel(result)
	if duration < 0 {
		duration = 0
	}

	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()
	metrics.MaintenanceDuration.WithLabelValues(job).Observe(duration.Seconds())

	value, _ := jobs.LoadOrStore(job, &jobStats{})
	value.(*jobStats).record(result, strings.TrimSpace(message), duration)
}

// Jobs returns the run history of every job recorded so far, ordered by job name.
func Jobs() []JobSummary {
	summaries := []JobSummary{}
	jobs.Range(func(key, value any) bool {
		summaries = append(summaries, value.(*jobStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Job < summaries[j].Job })
	return summaries
}

func (s *jobStats) record(result, message string, duration time.Duration) {
	now := time.Now()
	s.lastStatus.Store(result)
	s.lastError.Store(message)
	s.lastRun.Store(now.UnixNano())
	s.lastDuration.Store(int64(duration))
	s.totalRuns.Add(1)

	if result == "success" {
		s.consecutiveFailures.Store(0)
		s.lastSuccessfulRun.Store(now.UnixNano())
		return
	}
	s.consecutiveFailures.Add(1)
}

func (s *jobStats) snapshot(job string) JobSummary {
	status, _ := s.lastStatus.Load().(string)
	errMsg, _ := s.lastError.Load().(string)

	summary := JobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(s.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: s.consecutiveFailures.Load(),
		TotalRuns:           s.totalRuns.Load(),
	}
	if ts := s.lastRun.Load(); ts > 0 {
		summary.LastRunAt = time.Unix(0, ts)
	}
	if ts := s.lastSuccessfulRun.Load(); ts > 0 {
		summary.LastSuccessAt = time.Unix(0, ts)
	}
	return summary
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
