package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.NewService(reg)

	s.IncRegistrations("active")
	s.IncRegistrations("active")
	s.IncRegistrations("queue")
	s.IncDraws("voting")
	s.IncMatchesFinished()
	s.ObserveOperationDuration("pick", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Registrations.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Registrations.WithLabelValues("queue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Draws.WithLabelValues("voting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.MatchesFinished))

	rec := httptest.NewRecorder()
	metrics.NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `football_registrations_total{status="active"} 2`)
	assert.Contains(t, string(body), "football_operation_duration_seconds_bucket")
}

func TestMock(t *testing.T) {
	m := metrics.NewMock()
	m.IncRegistrations("queue")
	m.IncRejections("pick")
	m.IncEventsPublished("match-finished")
	assert.Equal(t, 1, m.Registrations("queue"))
	assert.Equal(t, 1, m.Rejections("pick"))
	assert.Equal(t, 1, m.EventsPublished("match-finished"))

	m.Reset()
	assert.Zero(t, m.Registrations("queue"))
}
