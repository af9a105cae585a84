package monitoring

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/metrics"
)

// ReportedError is the most recent failure handed to a Reporter for a component.
type ReportedError struct {
	Component  string    `json:"component"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Reporter is the error sink for failures that are handled without surfacing details to callers.
// Each report is logged and counted.
type Reporter struct {
	log *zap.Logger

	mu   sync.RWMutex
	last map[string]ReportedError
}

// NewReporter constructs a Reporter logging through the supplied logger. A nil logger uses the
// global "monitoring" module logger.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = logger.WithModule("monitoring")
	}
	return &Reporter{log: log, last: make(map[string]ReportedError)}
}

// Report records err against component.
func (r *Reporter) Report(ctx context.Context, component string, err error) {
	if r == nil || err == nil {
		return
	}
	component = strings.TrimSpace(strings.ToLower(component))
	if component == "" {
		component = "unknown"
	}

	metrics.ReportedErrors.WithLabelValues(component).Inc()

	fields := []zap.Field{zap.String("component", component), zap.Error(err)}
	if ctx != nil && ctx.Err() != nil {
		fields = append(fields, zap.NamedError("context", ctx.Err()))
	}
	r.log.Error("reported failure", fields...)

	r.mu.Lock()
	r.last[component] = ReportedError{
		Component:  component,
		Message:    err.Error(),
		OccurredAt: time.Now(),
	}
	r.mu.Unlock()
}

// Last returns the most recent report per component.
func (r *Reporter) Last() []ReportedError {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ReportedError, 0, len(r.last))
	for _, entry := range r.last {
		out = append(out, entry)
	}
	return out
}
