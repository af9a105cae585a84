package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/fallback"
	"github.com/openmakers/badgegate/pkg/crypto"
	appErrors "github.com/openmakers/badgegate/pkg/errors"
	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/response"
)

// HeaderFallbackToken carries the export secret.
const HeaderFallbackToken = "X-Fallback-Token"

// SnapshotProvider returns the fallback snapshot, rebuilding it when forceRefresh is set.
type SnapshotProvider interface {
	GetPayload(ctx context.Context, forceRefresh bool) (fallback.Snapshot, error)
}

// ExportHandler serves the offline export to terminals holding the shared secret.
type ExportHandler struct {
	snapshots SnapshotProvider
	secret    string
	log       *zap.Logger
}

// NewExportHandler constructs an ExportHandler. An empty secret disables the endpoint.
// The secret may be stored as plaintext or as a bcrypt hash.
func NewExportHandler(snapshots SnapshotProvider, secret string) (*ExportHandler, error) {
	if snapshots == nil {
		return nil, errors.New("export handler: snapshot provider is required")
	}
	return &ExportHandler{
		snapshots: snapshots,
		secret:    strings.TrimSpace(secret),
		log:       logger.WithModule("export"),
	}, nil
}

// GET /api/fallback/store
func (h *ExportHandler) Store(c *gin.Context) {
	if h.secret == "" {
		terminalError(c, appErrors.ErrExportDisabled)
		return
	}

	if !crypto.SecretMatches(h.secret, presentedSecret(c)) {
		h.log.Warn("export secret rejected", zap.String("client_ip", c.ClientIP()))
		terminalError(c, appErrors.ErrInvalidSecret)
		return
	}

	snapshot, err := h.snapshots.GetPayload(requestContext(c), refreshRequested(c.Query("refresh")))
	if err != nil {
		response.Failure(c, http.StatusInternalServerError, InternalErrorMessage)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, snapshot)
}

func refreshRequested(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	enabled, err := strconv.ParseBool(raw)
	return err == nil && enabled
}

func terminalError(c *gin.Context, err *appErrors.AppError) {
	response.Failure(c, err.StatusCode, err.Message+".")
}
