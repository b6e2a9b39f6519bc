package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.EventsSeen.Inc()
	m.Verdicts.WithLabelValues("accepted").Inc()
	m.Verdicts.WithLabelValues("low_burn").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsSeen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("low_burn")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `poolsniper_trust_verdicts_total{outcome="low_burn"} 2`)
	assert.Contains(t, string(body), "poolsniper_listener_events_total 1")
}
