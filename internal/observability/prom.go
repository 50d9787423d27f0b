package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Fernanda3920/smokesense/internal/ports"
)

// Metric names exported by the capture and simulator pipelines.
const (
	MetricPublishedTotal       = "smokesense_published_total"
	MetricPublishedSmokeTotal  = "smokesense_published_smoke_total"
	MetricPublishedNormalTotal = "smokesense_published_normal_total"
	MetricPublishErrorsTotal   = "smokesense_publish_errors_total"
	MetricCaptureErrorsTotal   = "smokesense_capture_errors_total"
	MetricMQTTConnected        = "smokesense_mqtt_connected"
	MetricLastMeanBrightness   = "smokesense_last_mean_brightness"
	MetricCaptureSeconds       = "smokesense_capture_duration_seconds"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricPublishedTotal,
		Help: "Telemetry payloads successfully published to the broker.",
	})
	smoke := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricPublishedSmokeTotal,
		Help: "Published captures classified as smoke.",
	})
	normal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricPublishedNormalTotal,
		Help: "Published captures classified as normal.",
	})
	pubErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricPublishErrorsTotal,
		Help: "Publish attempts that failed, including attempts while disconnected.",
	})
	capErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: MetricCaptureErrorsTotal,
		Help: "Capture cycles that produced no usable pixel data.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricMQTTConnected,
		Help: "1 while the MQTT link is up.",
	})
	meanBri := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricLastMeanBrightness,
		Help: "Mean brightness of the most recent capture.",
	})
	capLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricCaptureSeconds,
		Help:    "Wall time from capture command to end marker.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	prometheus.MustRegister(published, smoke, normal, pubErrs, capErrs, connected, meanBri, capLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			MetricPublishedTotal:       published,
			MetricPublishedSmokeTotal:  smoke,
			MetricPublishedNormalTotal: normal,
			MetricPublishErrorsTotal:   pubErrs,
			MetricCaptureErrorsTotal:   capErrs,
		},
		gauges: map[string]prometheus.Gauge{
			MetricMQTTConnected:      connected,
			MetricLastMeanBrightness: meanBri,
		},
		histos: map[string]prometheus.Observer{
			MetricCaptureSeconds: capLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
		return
	}
	log.Printf("ERROR: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
		return
	}
	log.Printf("CRITICAL: %s%s", msg, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}
