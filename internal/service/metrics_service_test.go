package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecords(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/roster", http.StatusOK, 20*time.Millisecond)
	m.ObserveUpstream("list_students", http.StatusOK, 5*time.Millisecond)
	m.RecordMutation("ban", "ok")
	m.RecordMutation("ban", "ok")
	m.RecordStaleResponse()
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, metricValue(t, m, "roster_mutations_total"))
	assert.Equal(t, 1.0, metricValue(t, m, "roster_stale_responses_total"))
	assert.Equal(t, 3.0, metricValue(t, m, "console_sessions_active"))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "roster_mutations_total")
	assert.Contains(t, w.Body.String(), "library_api_request_duration_seconds")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveUpstream("get_category", 0, time.Millisecond)
		m.RecordMutation("notify", "failed")
		m.RecordCategoryFallback()
		m.RecordStaleResponse()
		m.SetActiveSessions(1)
	})
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// metricValue sums the samples of a counter or gauge family whose label
// values, in label-name order, start with labels.
func metricValue(t *testing.T, m *MetricsService, name string, labels ...string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range mf.GetMetric() {
			pairs := metric.GetLabel()
			if len(labels) > len(pairs) {
				continue
			}
			for i, want := range labels {
				if pairs[i].GetValue() != want {
					continue metrics
				}
			}
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			}
		}
	}
	return total
}
