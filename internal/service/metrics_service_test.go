package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-api/pkg/jobs"
)

func TestMetricsSnapshotCountsTransitionsAndJobs(t *testing.T) {
	m := NewMetricsService()

	m.RecordTransition("complaint", "escalate", nil)
	m.RecordTransition("complaint", "resolve", errors.New("forbidden"))
	m.RecordJob("notifications", nil)
	m.RecordJob("reports", errors.New("disk full"))
	m.RecordCache(CacheOpGet, CacheHit, time.Millisecond)
	m.RecordCache(CacheOpGet, CacheMiss, time.Millisecond)
	m.RecordCache(CacheOpSet, CacheOK, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/events", http.StatusOK, 10*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.TransitionsApplied)
	assert.Equal(t, uint64(1), snap.TransitionsRejected)
	assert.Equal(t, uint64(2), snap.JobsProcessed)
	assert.Equal(t, uint64(1), snap.JobsFailed)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 10.0, snap.AverageRequestDurationMs, 0.0001)
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordTransition("event", "forward", nil)
	m.RecordJob("reports", jobs.Permanent(errors.New("job row missing")))
	release := m.TrackInFlight()
	release()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `campus_workflow_transitions_total{action="forward",entity="event",outcome="applied"} 1`)
	assert.Contains(t, body, `campus_jobs_total{queue="reports",result="abandoned"} 1`)
	assert.Contains(t, body, "campus_http_requests_in_flight 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordTransition("leave", "approved", nil)
	m.RecordJob("reports", nil)
	m.RecordCache(CacheOpGet, CacheHit, time.Millisecond)
	m.TrackInFlight()()
	assert.Equal(t, uint64(0), m.Snapshot().JobsProcessed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
