package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/gsmpsampler/pkg/gsmp/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveEnableIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg, "gsmp_test")
	c.ObserveEnable("direct")
	c.ObserveEnable("direct")
	require.Equal(t, 2.0, counterValue(t, c.Enables.WithLabelValues("direct")))
}

func TestNilCollectorIsSafeEverywhere(t *testing.T) {
	var c *metrics.Collector
	require.NotPanics(t, func() {
		c.ObserveEnable("x")
		c.ObserveDisable("x")
		c.ObserveFire("x")
		c.ObserveNext("x")
		c.ObserveNumericFailure("weibull")
		c.ObserveCRNHit()
		c.ObserveCRNMiss()
		c.SetQueueLength("x", 3)
	})
}

func TestCRNHitAndMissCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg, "gsmp_test2")
	c.ObserveCRNHit()
	c.ObserveCRNHit()
	c.ObserveCRNMiss()
	require.Equal(t, 2.0, counterValue(t, c.CRNHits))
	require.Equal(t, 1.0, counterValue(t, c.CRNMisses))
}
