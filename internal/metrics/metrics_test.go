package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.ObserveRequest(http.MethodGet, "/ranking/{job_id}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/ranking/{job_id}", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/submit-quiz", http.StatusUnauthorized, time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/match/{job_id}", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/ranking/{job_id}", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/submit-quiz", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/match/{job_id}", "transport_error")))
}

func TestObserveMatchAndRankingSize(t *testing.T) {
	m := NewManager()

	m.ObserveMatch(OutcomeSucceeded)
	m.ObserveMatch(OutcomeFailed)
	m.ObserveMatch(OutcomeSucceeded)
	m.SetRankingSize(3, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.matchRuns.WithLabelValues(OutcomeSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchRuns.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rankingSize.WithLabelValues("3")))
}

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager

	require.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/jobs", http.StatusOK, time.Millisecond)
		m.ObserveMatch(OutcomeSucceeded)
		m.SetRankingSize(1, 1)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := NewManager()
	m.ObserveMatch(OutcomeSucceeded)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hirectl_matching_runs_total"))
}

func TestOptionsShapeExposition(t *testing.T) {
	m := NewManager(WithNamespace("hire"), WithHistogramBuckets([]float64{0.25, 1}))
	m.ObserveRequest(http.MethodGet, "/jobs", http.StatusOK, 100*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "hire_api_requests_total")
	assert.Contains(t, body, `le="0.25"`)
	assert.NotContains(t, body, `le="0.005"`)
}
