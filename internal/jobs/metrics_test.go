package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerEndPropagatesError(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	boom := errors.New("scan failed")

	tracker := m.Track("scan")
	require.ErrorIs(t, tracker.End(boom), boom)
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("scan")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("scan", "failure")))

	tracker = m.Track("scan")
	require.NoError(t, tracker.End(nil))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("scan", "success")))
}

func TestNilMetricsTrackerIsInert(t *testing.T) {
	var m *Metrics
	boom := errors.New("still surfaces")
	require.ErrorIs(t, m.Track("scan").End(boom), boom)
}
