package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gfiorillo/albowatch/internal/pipeline"
)

func TestHealthz(t *testing.T) {
	srv := NewServer()
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestStatusBeforeFirstRun(t *testing.T) {
	srv := NewServer()
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatusAfterRun(t *testing.T) {
	srv := NewServer()
	srv.RecordResult(pipeline.Result{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Found:     3,
		Delivered: 3,
		Committed: true,
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-1", got.RunID)
	require.Equal(t, 3, got.Found)
	require.True(t, got.Committed)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer()
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
