package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("stock:expiry-scan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("stock:expiry-scan").End(boom), boom)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]int)
	for _, mf := range families {
		names[mf.GetName()] = len(mf.GetMetric())
	}
	require.Equal(t, 2, names["pharmaflow_jobs_total"])
	require.Equal(t, 1, names["pharmaflow_jobs_failures_total"])
	require.Equal(t, 1, names["pharmaflow_job_duration_seconds"])
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	err := errors.New("kept")
	require.Equal(t, err, m.Track("x").End(err))
	m.SetStockBatches("EXPIRED", 1)
	m.SetStockValue(2)
	m.SetActiveAlerts("LOW", 3)
}
