package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs()

	obs.IncCounter(MetricPublishedTotal, 3)
	if got := testutil.ToFloat64(obs.counters[MetricPublishedTotal]); got != 3 {
		t.Fatalf("expected published counter 3, got %f", got)
	}

	obs.IncCounter(MetricPublishErrorsTotal, 1)
	if got := testutil.ToFloat64(obs.counters[MetricPublishErrorsTotal]); got != 1 {
		t.Fatalf("expected error counter 1, got %f", got)
	}

	obs.SetGauge(MetricMQTTConnected, 1)
	if got := testutil.ToFloat64(obs.gauges[MetricMQTTConnected]); got != 1 {
		t.Fatalf("expected connected gauge 1, got %f", got)
	}

	obs.ObserveLatency(MetricCaptureSeconds, 0.25)
	hCollector := obs.histos[MetricCaptureSeconds].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected capture histogram to record 1 sample, got %d", samples)
	}

	// unknown names are ignored, not registered lazily
	obs.IncCounter("smokesense_bogus_total", 1)
	obs.SetGauge("smokesense_bogus", 1)
	obs.ObserveLatency("smokesense_bogus_seconds", 1)
}
