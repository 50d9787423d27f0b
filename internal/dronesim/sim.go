// Package dronesim generates agricultural drone telemetry with periodic
// injected faults, for exercising downstream anomaly detection.
package dronesim

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/Fernanda3920/smokesense/internal/domain"
	"github.com/Fernanda3920/smokesense/internal/observability"
	"github.com/Fernanda3920/smokesense/internal/ports"
)

// Config holds the simulator parameters.
type Config struct {
	Topic        string
	BaseLat      float64
	BaseLon      float64
	BaseAlt      float64
	Interval     time.Duration
	AnomalyEvery int
	StatsEvery   int
	BatteryDrain float64
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.AnomalyEvery <= 0 {
		c.AnomalyEvery = 5
	}
	if c.StatsEvery <= 0 {
		c.StatsEvery = 5
	}
	if c.BatteryDrain <= 0 {
		c.BatteryDrain = 0.1
	}
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithRand injects the random source, fixing the fault schedule for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock injects the time source used for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// Simulator owns the drone state: position, battery, reading counter, flight
// time, and GPS-loss count. Not safe for concurrent use; Run drives it from a
// single goroutine.
type Simulator struct {
	cfg Config
	pub ports.Publisher
	obs ports.Observability
	rng *rand.Rand
	now func() time.Time

	lat, lon, alt    float64
	battery          float64
	readingCount     int
	flightTime       float64 // seconds
	gpsLossCount     int
	prevLat, prevLon float64
}

// New builds a simulator parked at the configured base coordinates with a
// full battery.
func New(cfg Config, pub ports.Publisher, obs ports.Observability, opts ...Option) *Simulator {
	cfg.applyDefaults()

	s := &Simulator{
		cfg:     cfg,
		pub:     pub,
		obs:     obs,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		lat:     cfg.BaseLat,
		lon:     cfg.BaseLon,
		alt:     cfg.BaseAlt,
		battery: 100.0,
		prevLat: cfg.BaseLat,
		prevLon: cfg.BaseLon,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Tick advances the simulation one reading and returns the telemetry to
// publish along with the fault injected into it, if any.
func (s *Simulator) Tick() (*domain.DroneTelemetry, domain.AnomalyKind) {
	s.readingCount++

	kind := domain.AnomalyNone
	if s.readingCount%s.cfg.AnomalyEvery == 0 {
		kind = domain.AnomalyKind(1 + s.rng.Intn(3))
	}

	if kind == domain.AnomalyGPSLoss {
		s.gpsLossCount++
	} else {
		s.drift()
	}

	s.battery -= s.cfg.BatteryDrain
	if s.battery < 0 {
		s.battery = 100.0
	}

	temperature := 25.0 + float64(s.rng.Intn(151))/10.0
	if kind == domain.AnomalyTemperature {
		temperature = 45.0 + float64(50+s.rng.Intn(151))/10.0
	}

	humidity := 40.0 + float64(s.rng.Intn(401))/10.0

	altitude := s.alt
	if kind == domain.AnomalyAltitude {
		altitude = -float64(100+s.rng.Intn(401)) / 10.0
	}

	t := &domain.DroneTelemetry{
		Timestamp:   s.now().Format("2006-01-02T15:04:05Z"),
		Temperature: round1(temperature),
		Humidity:    round1(humidity),
		Altitude:    round1(altitude),
		Battery:     int(s.battery),
	}
	if kind != domain.AnomalyGPSLoss {
		lat, lon := s.lat, s.lon
		t.GPS = domain.GPSFix{Lat: &lat, Lon: &lon}
	}

	return t, kind
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// drift moves the drone a small random step and keeps it inside a bounded
// box around the base coordinates.
func (s *Simulator) drift() {
	s.lat += float64(s.rng.Intn(201)-100) / 1e6
	s.lon += float64(s.rng.Intn(201)-100) / 1e6
	s.alt = s.cfg.BaseAlt + float64(s.rng.Intn(101)-50)/10.0

	if math.Abs(s.lat-s.cfg.BaseLat) > 0.005 {
		s.lat = s.cfg.BaseLat + float64(s.rng.Intn(101)-50)/1e4
	}
	if math.Abs(s.lon-s.cfg.BaseLon) > 0.005 {
		s.lon = s.cfg.BaseLon + float64(s.rng.Intn(101)-50)/1e4
	}
}

// RemainingAutonomy estimates remaining flight minutes from battery charge.
func (s *Simulator) RemainingAutonomy() float64 {
	return s.battery
}

// CoveredArea estimates the sprayed area in square meters, assuming a
// 0.5 km/min cruise over a 10 m swath.
func (s *Simulator) CoveredArea() float64 {
	distanceKm := (s.flightTime * 0.5) / 60.0
	return distanceKm * 1000.0 * 10.0
}

// Speed returns meters moved since the previous fix and advances it.
func (s *Simulator) Speed() float64 {
	latDiff := (s.lat - s.prevLat) * 111139.0
	lonDiff := (s.lon - s.prevLon) * 111139.0
	s.prevLat = s.lat
	s.prevLon = s.lon
	return math.Sqrt(latDiff*latDiff + lonDiff*lonDiff)
}

// SolarIntensity models ambient light in lux for the given hour of day, with
// sampled jitter.
func (s *Simulator) SolarIntensity(hour int) float64 {
	if hour >= 6 && hour <= 18 {
		hourFactor := math.Sin(float64(hour-6) * math.Pi / 12.0)
		return 50000.0*hourFactor + float64(s.rng.Intn(10001)-5000)
	}
	return float64(s.rng.Intn(101))
}

// RainCondition classifies rain likelihood from humidity and a sampled
// probability.
func (s *Simulator) RainCondition(humidity float64) domain.RainCondition {
	prob := s.rng.Intn(101)
	switch {
	case humidity > 80 && prob > 70:
		return domain.RainDetected
	case humidity > 70 && prob > 50:
		return domain.RainRisk
	default:
		return domain.RainNone
	}
}

// SpraySuitability evaluates whether conditions allow crop spraying.
func SpraySuitability(temp, humidity float64) domain.SprayCondition {
	if temp < 10 || temp > 35 {
		return domain.SprayBadTemp
	}
	if humidity < 30 || humidity > 90 {
		return domain.SprayBadHumidity
	}
	return domain.SprayOK
}

// GPSLossCount reports how many readings lost the GPS fix so far.
func (s *Simulator) GPSLossCount() int {
	return s.gpsLossCount
}

// Run connects the publisher and emits one telemetry reading per interval
// until the context is cancelled. Publish failures are logged and skipped.
func (s *Simulator) Run(ctx context.Context) error {
	if err := s.pub.Connect(ctx); err != nil {
		return err
	}
	defer s.pub.Close()

	s.obs.LogInfo("dronesim_started",
		ports.Field{Key: "topic", Value: s.cfg.Topic},
		ports.Field{Key: "interval", Value: s.cfg.Interval},
		ports.Field{Key: "anomaly_every", Value: s.cfg.AnomalyEvery})

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logFlightStats(0, 0)
			return nil
		case <-ticker.C:
			s.publishReading()
			s.flightTime += s.cfg.Interval.Seconds()
		}
	}
}

func (s *Simulator) publishReading() {
	t, kind := s.Tick()

	payload, err := json.Marshal(t)
	if err != nil {
		s.obs.LogError("telemetry_marshal_failed", err)
		return
	}
	if err := s.pub.Publish(s.cfg.Topic, ports.QoSAtMostOnce, payload); err != nil {
		s.obs.IncCounter(observability.MetricPublishErrorsTotal, 1)
		s.obs.LogError("telemetry_publish_failed", err, ports.Field{Key: "topic", Value: s.cfg.Topic})
		return
	}

	solar := s.SolarIntensity(s.now().Hour())
	rain := s.RainCondition(t.Humidity)

	s.obs.LogInfo("telemetry_published",
		ports.Field{Key: "reading", Value: s.readingCount},
		ports.Field{Key: "anomaly", Value: kind.String()},
		ports.Field{Key: "temperature", Value: t.Temperature},
		ports.Field{Key: "altitude", Value: t.Altitude},
		ports.Field{Key: "battery", Value: t.Battery},
		ports.Field{Key: "autonomy_min", Value: math.Round(s.RemainingAutonomy())},
		ports.Field{Key: "solar_lux", Value: math.Round(solar)},
		ports.Field{Key: "rain", Value: rain})

	if s.readingCount%s.cfg.StatsEvery == 0 {
		s.logFlightStats(t.Temperature, t.Humidity)
	}
}

func (s *Simulator) logFlightStats(temp, humidity float64) {
	s.obs.LogInfo("flight_stats",
		ports.Field{Key: "flight_time_min", Value: s.flightTime / 60.0},
		ports.Field{Key: "covered_area_m2", Value: math.Round(s.CoveredArea())},
		ports.Field{Key: "speed_ms", Value: s.Speed()},
		ports.Field{Key: "spray", Value: SpraySuitability(temp, humidity)},
		ports.Field{Key: "gps_losses", Value: s.gpsLossCount})
}
