package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (s *MetricsTestSuite) TestCounters() {
	m := New()

	m.SignalsTotal.WithLabelValues("000001", "BUY", "strong").Inc()
	m.SignalsTotal.WithLabelValues("000001", "BUY", "strong").Inc()
	m.PollCycles.WithLabelValues("000001", "ok").Inc()
	m.ActiveMonitors.Set(2)
	m.NotifyFailures.Inc()

	s.Equal(2.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("000001", "BUY", "strong")))
	s.Equal(1.0, testutil.ToFloat64(m.PollCycles.WithLabelValues("000001", "ok")))
	s.Equal(2.0, testutil.ToFloat64(m.ActiveMonitors))
	s.Equal(1.0, testutil.ToFloat64(m.NotifyFailures))
}

func (s *MetricsTestSuite) TestIndependentRegistries() {
	a := New()
	b := New()

	a.NotifyFailures.Inc()

	s.Equal(1.0, testutil.ToFloat64(a.NotifyFailures))
	s.Equal(0.0, testutil.ToFloat64(b.NotifyFailures))
}

func (s *MetricsTestSuite) TestHandlerServesExposition() {
	m := New()
	m.ActiveMonitors.Set(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)

	m.Handler().ServeHTTP(rec, req)

	s.Equal(200, rec.Code)
	s.Contains(rec.Body.String(), "tmonitor_active_monitors 3")
}
