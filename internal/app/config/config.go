package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Capture CaptureConfig `yaml:"capture"`
	Image   ImageConfig   `yaml:"image"`
	Archive ArchiveConfig `yaml:"archive"`
	Metrics MetricsConfig `yaml:"metrics"`
	Drone   DroneConfig   `yaml:"drone"`
}

type SerialConfig struct {
	Port         string `yaml:"port"`
	BaudRate     int    `yaml:"baud_rate"`
	SettleWaitMs int    `yaml:"settle_wait_ms"`
}

type MQTTConfig struct {
	BrokerURL             string `yaml:"broker_url"`
	Token                 string `yaml:"token"`
	Topic                 string `yaml:"topic"`
	ClientID              string `yaml:"client_id"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	PublishTimeoutSeconds int    `yaml:"publish_timeout_seconds"`
	KeepAliveSeconds      int    `yaml:"keep_alive_seconds"`
}

type CaptureConfig struct {
	Command         string `yaml:"command"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	LineBuffer      int    `yaml:"line_buffer"`
}

type ImageConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Scale     int    `yaml:"scale"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
}

type ArchiveConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type DroneConfig struct {
	ClientID       string  `yaml:"client_id"`
	Topic          string  `yaml:"topic"`
	BaseLat        float64 `yaml:"base_lat"`
	BaseLon        float64 `yaml:"base_lon"`
	BaseAlt        float64 `yaml:"base_alt"`
	IntervalMs     int     `yaml:"interval_ms"`
	AnomalyEvery   int     `yaml:"anomaly_every"`
	StatsEvery     int     `yaml:"stats_every"`
	BatteryDrainPc float64 `yaml:"battery_drain_pct"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = 115200
	}
	if c.Serial.SettleWaitMs == 0 {
		c.Serial.SettleWaitMs = 2000
	}

	if c.MQTT.BrokerURL == "" {
		c.MQTT.BrokerURL = "tcp://mqtt.flespi.io:1883"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "arduino/anomalias"
	}
	if c.MQTT.ConnectTimeoutSeconds == 0 {
		c.MQTT.ConnectTimeoutSeconds = 10
	}
	if c.MQTT.PublishTimeoutSeconds == 0 {
		c.MQTT.PublishTimeoutSeconds = 5
	}
	if c.MQTT.KeepAliveSeconds == 0 {
		c.MQTT.KeepAliveSeconds = 60
	}

	if c.Capture.Command == "" {
		c.Capture.Command = "3"
	}
	if c.Capture.IntervalSeconds == 0 {
		c.Capture.IntervalSeconds = 15
	}
	if c.Capture.TimeoutSeconds == 0 {
		c.Capture.TimeoutSeconds = 10
	}
	if c.Capture.LineBuffer == 0 {
		c.Capture.LineBuffer = 1024
	}

	if c.Image.Width == 0 {
		c.Image.Width = 22
	}
	if c.Image.Height == 0 {
		c.Image.Height = 18
	}
	if c.Image.Scale == 0 {
		c.Image.Scale = 10
	}
	if c.Image.Format == "" {
		c.Image.Format = "png"
	}
	if c.Image.OutputDir == "" {
		c.Image.OutputDir = "./imagenes_arduino"
	}

	if c.Archive.Table == "" {
		c.Archive.Table = "capture_reports"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	if c.Drone.ClientID == "" {
		c.Drone.ClientID = "AgroDrone_01"
	}
	if c.Drone.Topic == "" {
		c.Drone.Topic = "satnet/agrodrone/telemetry"
	}
	if c.Drone.BaseLat == 0 {
		c.Drone.BaseLat = -34.6123
	}
	if c.Drone.BaseLon == 0 {
		c.Drone.BaseLon = -58.3772
	}
	if c.Drone.BaseAlt == 0 {
		c.Drone.BaseAlt = 234.2
	}
	if c.Drone.IntervalMs == 0 {
		c.Drone.IntervalMs = 1000
	}
	if c.Drone.AnomalyEvery == 0 {
		c.Drone.AnomalyEvery = 5
	}
	if c.Drone.StatsEvery == 0 {
		c.Drone.StatsEvery = 5
	}
	if c.Drone.BatteryDrainPc == 0 {
		c.Drone.BatteryDrainPc = 0.1
	}
}

func (c *Config) validate() error {
	if c.MQTT.Token == "" {
		return fmt.Errorf("mqtt.token is required")
	}
	if c.Capture.TimeoutSeconds < 0 {
		return fmt.Errorf("capture.timeout_seconds must be positive")
	}
	if c.Image.Scale < 1 {
		return fmt.Errorf("image.scale must be >= 1, got %d", c.Image.Scale)
	}
	if c.Drone.AnomalyEvery < 1 {
		return fmt.Errorf("drone.anomaly_every must be >= 1")
	}
	return nil
}

// CaptureTimeout is the bounded wait for the CSV end marker.
func (c *CaptureConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval is the pause between capture cycles.
func (c *CaptureConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c *MQTTConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

func (c *MQTTConfig) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutSeconds) * time.Second
}

func (c *MQTTConfig) KeepAlive() time.Duration {
	return time.Duration(c.KeepAliveSeconds) * time.Second
}

func (c *DroneConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}
