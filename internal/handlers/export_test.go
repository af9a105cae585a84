package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/fallback"
	"github.com/openmakers/badgegate/pkg/crypto"
)

type stubSnapshots struct {
	snapshot fallback.Snapshot
	err      error
	forced   []bool
}

func (s *stubSnapshots) GetPayload(_ context.Context, forceRefresh bool) (fallback.Snapshot, error) {
	s.forced = append(s.forced, forceRefresh)
	return s.snapshot, s.err
}

func exportRouter(t *testing.T, snapshots SnapshotProvider, secret string) *gin.Engine {
	t.Helper()
	handler, err := NewExportHandler(snapshots, secret)
	require.NoError(t, err)
	r := gin.New()
	r.GET("/api/fallback/store", handler.Store)
	return r
}

func sampleSnapshot() fallback.Snapshot {
	return fallback.Snapshot{
		Users:       []fallback.User{{ID: "1", CardSerial: "ABC", UUID: "u-1"}},
		Tools:       []fallback.Tool{{ID: "door_1", Name: "door", BadgeName: "Door", ReaderDeviceID: "door_1", ActivatorDeviceID: "door_1", DeviceID: "door_1"}},
		Assignments: []fallback.Assignment{{"1", "door_1"}},
	}
}

func TestExportDisabledWithoutSecret(t *testing.T) {
	snapshots := &stubSnapshots{}
	router := exportRouter(t, snapshots, "  ")

	rec := perform(t, router, http.MethodGet, "/api/fallback/store?token=anything", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Fallback export is not configured.", decodeError(t, rec))
	require.Empty(t, snapshots.forced)
}

func TestExportRejectsWrongSecret(t *testing.T) {
	snapshots := &stubSnapshots{}
	router := exportRouter(t, snapshots, "terminal-secret")

	for _, target := range []string{"/api/fallback/store", "/api/fallback/store?token=wrong"} {
		rec := perform(t, router, http.MethodGet, target, nil)
		require.Equal(t, http.StatusForbidden, rec.Code, target)
		require.Equal(t, "Invalid export secret.", decodeError(t, rec))
	}
	require.Empty(t, snapshots.forced)
}

func TestExportServesSnapshotWithHeaderOrQueryToken(t *testing.T) {
	snapshots := &stubSnapshots{snapshot: sampleSnapshot()}
	router := exportRouter(t, snapshots, "terminal-secret")

	rec := perform(t, router, http.MethodGet, "/api/fallback/store", http.Header{HeaderFallbackToken: {"terminal-secret"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var got fallback.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, sampleSnapshot(), got)

	rec = perform(t, router, http.MethodGet, "/api/fallback/store?token=terminal-secret&refresh=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []bool{false, true}, snapshots.forced)
}

func TestExportAcceptsHashedSecret(t *testing.T) {
	hashed, err := crypto.HashSecret("terminal-secret")
	require.NoError(t, err)
	router := exportRouter(t, &stubSnapshots{snapshot: sampleSnapshot()}, hashed)

	rec := perform(t, router, http.MethodGet, "/api/fallback/store", http.Header{HeaderFallbackToken: {"terminal-secret"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(t, router, http.MethodGet, "/api/fallback/store", http.Header{HeaderFallbackToken: {hashed}})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportBuildFailureIsGeneric(t *testing.T) {
	router := exportRouter(t, &stubSnapshots{err: errors.New("sql: connection refused")}, "terminal-secret")

	rec := perform(t, router, http.MethodGet, "/api/fallback/store?token=terminal-secret", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, InternalErrorMessage, decodeError(t, rec))
}

func TestRefreshRequested(t *testing.T) {
	require.True(t, refreshRequested("1"))
	require.True(t, refreshRequested("true"))
	require.False(t, refreshRequested(""))
	require.False(t, refreshRequested("0"))
	require.False(t, refreshRequested("yes please"))
}
