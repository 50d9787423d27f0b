// Package monitor runs the capture → classify → publish pipeline against a
// live camera device.
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fernanda3920/smokesense/internal/analysis"
	"github.com/Fernanda3920/smokesense/internal/app/config"
	"github.com/Fernanda3920/smokesense/internal/archive"
	"github.com/Fernanda3920/smokesense/internal/capture"
	"github.com/Fernanda3920/smokesense/internal/csvdata"
	"github.com/Fernanda3920/smokesense/internal/domain"
	"github.com/Fernanda3920/smokesense/internal/mqttpub"
	"github.com/Fernanda3920/smokesense/internal/observability"
	"github.com/Fernanda3920/smokesense/internal/ports"
	"github.com/Fernanda3920/smokesense/internal/serialport"
)

// statsEvery controls how often the running totals are echoed to the operator.
const statsEvery = 5

// Option customizes the dependencies used by the Monitor.
type Option func(*overrides)

type overrides struct {
	source    ports.LineSource
	publisher ports.Publisher
	archive   ports.Archive
	obs       ports.Observability
}

// WithLineSource injects a custom line source (simulators, captured traces).
func WithLineSource(s ports.LineSource) Option {
	return func(o *overrides) { o.source = s }
}

// WithPublisher injects a custom publisher implementation.
func WithPublisher(p ports.Publisher) Option {
	return func(o *overrides) { o.publisher = p }
}

// WithArchive injects a custom archive, overriding the config-driven one.
func WithArchive(a ports.Archive) Option {
	return func(o *overrides) { o.archive = a }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// Counters are the running totals kept for operator reporting. They are
// mutated only by the monitor's own loop.
type Counters struct {
	Published int
	Smoke     int
	Normal    int
	Errors    int
}

// Monitor owns the capture pipeline state: the serial line source, the MQTT
// link, the counters, and the metrics surface. Constructed at startup, torn
// down by Shutdown.
type Monitor struct {
	cfg      *config.Config
	obs      ports.Observability
	source   ports.LineSource
	pub      ports.Publisher
	arch     ports.Archive
	db       *sql.DB
	lines    chan string
	counters Counters

	metricsSrv *http.Server
}

// New wires the default adapters (serial collector, paho publisher, optional
// Timescale archive, Prometheus observability); options override any of them.
func New(cfg *config.Config, opts ...Option) (*Monitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var ov overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&ov)
		}
	}

	obs := ov.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	source := ov.source
	if source == nil {
		col, err := serialport.NewCollector(serialport.Config{
			Port:       cfg.Serial.Port,
			BaudRate:   cfg.Serial.BaudRate,
			SettleWait: time.Duration(cfg.Serial.SettleWaitMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		source = col
	}

	pub := ov.publisher
	if pub == nil {
		pub = mqttpub.New(mqttpub.Config{
			BrokerURL:      cfg.MQTT.BrokerURL,
			Token:          cfg.MQTT.Token,
			ClientID:       cfg.MQTT.ClientID,
			ConnectTimeout: cfg.MQTT.ConnectTimeout(),
			PublishTimeout: cfg.MQTT.PublishTimeout(),
			KeepAlive:      cfg.MQTT.KeepAlive(),
		}, obs)
	}

	m := &Monitor{
		cfg:    cfg,
		obs:    obs,
		source: source,
		pub:    pub,
		arch:   ov.archive,
	}

	if m.arch == nil && cfg.Archive.ConnString != "" {
		db, err := sql.Open("postgres", cfg.Archive.ConnString)
		if err != nil {
			return nil, fmt.Errorf("open archive db: %w", err)
		}
		m.db = db
		m.arch = archive.NewTimescaleArchive(db, cfg.Archive.Table)
	}

	return m, nil
}

// Start connects the MQTT link, opens the serial source, and exposes
// metrics. Either connectivity failure is terminal for the run.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.pub.Connect(ctx); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	m.lines = make(chan string, m.cfg.Capture.LineBuffer)
	if err := m.source.Start(m.lines); err != nil {
		return err
	}

	m.startMetrics()
	m.obs.LogInfo("monitor_started",
		ports.Field{Key: "topic", Value: m.cfg.MQTT.Topic},
		ports.Field{Key: "interval", Value: m.cfg.Capture.Interval()})
	return nil
}

// Run starts the monitor and loops until the context is cancelled: one
// capture cycle immediately, then one per configured interval.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(m.cfg.Capture.Interval())
	defer ticker.Stop()

	m.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logStats()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return m.Shutdown(shutdownCtx)
		case <-ticker.C:
			m.Cycle(ctx)
		}
	}
}

// Shutdown releases the serial port, the broker link, the metrics server,
// and the archive connection.
func (m *Monitor) Shutdown(ctx context.Context) error {
	var errs []error

	if m.metricsSrv != nil {
		if err := m.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if err := m.source.Stop(); err != nil {
		errs = append(errs, err)
	}
	m.pub.Close()
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Cycle runs one capture/classify/publish pass. Capture and parse failures
// abort the cycle, never the process; publish failures are counted and not
// retried.
func (m *Monitor) Cycle(ctx context.Context) {
	start := time.Now()

	sess := &capture.Session{
		Source:  m.source,
		Lines:   m.lines,
		Command: m.cfg.Capture.Command,
		Timeout: m.cfg.Capture.Timeout(),
	}
	lines, err := sess.Run(ctx)
	if err != nil {
		m.counters.Errors++
		m.obs.IncCounter(observability.MetricCaptureErrorsTotal, 1)
		m.obs.LogError("capture_failed", err)
		return
	}
	m.obs.ObserveLatency(observability.MetricCaptureSeconds, time.Since(start).Seconds())

	pixels, err := csvdata.ExtractPixels(lines)
	if err != nil {
		m.counters.Errors++
		m.obs.IncCounter(observability.MetricCaptureErrorsTotal, 1)
		m.obs.LogError("capture_parse_failed", err)
		return
	}

	report := BuildReport(pixels, time.Now())
	m.obs.SetGauge(observability.MetricLastMeanBrightness, report.MeanBri)

	payload, err := json.Marshal(report)
	if err != nil {
		m.counters.Errors++
		m.obs.LogError("report_marshal_failed", err)
		return
	}

	if err := m.pub.Publish(m.cfg.MQTT.Topic, ports.QoSAtLeastOnce, payload); err != nil {
		m.counters.Errors++
		m.obs.IncCounter(observability.MetricPublishErrorsTotal, 1)
		m.obs.LogError("publish_failed", err, ports.Field{Key: "topic", Value: m.cfg.MQTT.Topic})
		return
	}

	m.counters.Published++
	m.obs.IncCounter(observability.MetricPublishedTotal, 1)
	if report.Anomaly == domain.VerdictSmoke {
		m.counters.Smoke++
		m.obs.IncCounter(observability.MetricPublishedSmokeTotal, 1)
		m.obs.LogInfo("smoke_detected",
			ports.Field{Key: "mean", Value: report.MeanBri},
			ports.Field{Key: "range", Value: report.MaxBri - report.MinBri})
	} else {
		m.counters.Normal++
		m.obs.IncCounter(observability.MetricPublishedNormalTotal, 1)
	}

	if m.arch != nil {
		if err := m.arch.WriteReports(m.cfg.MQTT.Topic, []*domain.CaptureReport{report}); err != nil {
			m.obs.LogError("archive_write_failed", err, ports.Field{Key: "archive", Value: m.arch.Name()})
		}
	}

	if m.counters.Published%statsEvery == 0 {
		m.logStats()
	}
}

// Counters returns a copy of the running totals.
func (m *Monitor) Counters() Counters {
	return m.counters
}

func (m *Monitor) logStats() {
	m.obs.LogInfo("monitor_stats",
		ports.Field{Key: "published", Value: m.counters.Published},
		ports.Field{Key: "smoke", Value: m.counters.Smoke},
		ports.Field{Key: "normal", Value: m.counters.Normal},
		ports.Field{Key: "errors", Value: m.counters.Errors})
}

func (m *Monitor) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	m.metricsSrv = &http.Server{
		Addr:    m.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := m.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.obs.LogError("metrics_server_exited", err)
		}
	}()
}

// BuildReport assembles the wire payload for one classified capture.
func BuildReport(pixels []int, now time.Time) *domain.CaptureReport {
	stats := analysis.Stats(pixels)
	return &domain.CaptureReport{
		TS:       now.Unix(),
		Anomaly:  analysis.Classify(pixels),
		Pixels:   pixels,
		Total:    len(pixels),
		Readable: now.Format("2006-01-02 15:04:05"),
		MeanBri:  math.Round(stats.Mean*100) / 100,
		MinBri:   stats.Min,
		MaxBri:   stats.Max,
	}
}
