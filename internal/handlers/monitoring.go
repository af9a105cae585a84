package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/monitoring"
	"github.com/openmakers/badgegate/pkg/response"
)

// ReportHistory exposes the most recent reported failures.
type ReportHistory interface {
	Last() []monitoring.ReportedError
}

// MonitoringHandler summarises background jobs and reported failures for administrators.
type MonitoringHandler struct {
	reports ReportHistory
	health  *monitoring.HealthManager
}

// NewMonitoringHandler constructs a MonitoringHandler. Both collaborators are optional.
func NewMonitoringHandler(reports ReportHistory, health *monitoring.HealthManager) *MonitoringHandler {
	return &MonitoringHandler{reports: reports, health: health}
}

type monitoringSummary struct {
	Jobs      []monitoring.JobSummary    `json:"jobs"`
	Errors    []monitoring.ReportedError `json:"errors"`
	Readiness *monitoring.HealthReport   `json:"readiness,omitempty"`
}

// GET /api/admin/monitoring/summary
func (h *MonitoringHandler) Summary(c *gin.Context) {
	summary := monitoringSummary{
		Jobs:   monitoring.Jobs(),
		Errors: []monitoring.ReportedError{},
	}
	if h.reports != nil {
		if last := h.reports.Last(); last != nil {
			summary.Errors = last
		}
	}
	if h.health != nil {
		report := h.health.EvaluateReadiness(requestContext(c))
		summary.Readiness = &report
	}

	response.Success(c, http.StatusOK, summary)
}
