package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotInvariant(t *testing.T) {
	m := New()
	m.Observe(DimensionEndpoint, "/v1/agents", true, 10*time.Millisecond)
	m.Observe(DimensionEndpoint, "/v1/agents", false, 20*time.Millisecond)
	m.Observe(DimensionAgent, "researcher", true, 5*time.Millisecond)

	snap := m.Snapshot()
	require.Equal(t, snap.SuccessCount+snap.ErrorCount, snap.TotalRequests)
	require.Equal(t, int64(3), snap.TotalRequests)

	ep := snap.ByEndpoint["/v1/agents"]
	require.Equal(t, int64(2), ep.Total)
	require.Equal(t, int64(1), ep.Errors)
}

func TestPercentilesOfWindow(t *testing.T) {
	m := New()
	for i := 1; i <= 100; i++ {
		m.Observe(DimensionEndpoint, "x", true, time.Duration(i)*time.Millisecond)
	}
	snap := m.Snapshot()
	require.InDelta(t, 50, snap.LatencyMS.P50, 2)
	require.InDelta(t, 95, snap.LatencyMS.P95, 2)
}

func TestRegistryExposesPrometheusMetrics(t *testing.T) {
	m := New()
	m.Observe(DimensionWorkflow, "w1", true, time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
