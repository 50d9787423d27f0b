package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := write(t, `
mqtt:
  token: "abc123"
serial:
  port: /dev/ttyACM0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Capture.Timeout() != 10*time.Second {
		t.Fatalf("expected default capture timeout 10s, got %s", cfg.Capture.Timeout())
	}
	if cfg.Capture.Interval() != 15*time.Second {
		t.Fatalf("expected default capture interval 15s, got %s", cfg.Capture.Interval())
	}
	if cfg.Capture.Command != "3" {
		t.Fatalf("expected default capture command 3, got %q", cfg.Capture.Command)
	}
	if cfg.MQTT.BrokerURL != "tcp://mqtt.flespi.io:1883" {
		t.Fatalf("unexpected default broker %s", cfg.MQTT.BrokerURL)
	}
	if cfg.MQTT.Topic != "arduino/anomalias" {
		t.Fatalf("unexpected default topic %s", cfg.MQTT.Topic)
	}
	if cfg.Image.Width != 22 || cfg.Image.Height != 18 || cfg.Image.Scale != 10 {
		t.Fatalf("unexpected image defaults: %+v", cfg.Image)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected metrics addr %s", cfg.Metrics.Addr)
	}
	if cfg.Drone.Topic != "satnet/agrodrone/telemetry" || cfg.Drone.AnomalyEvery != 5 {
		t.Fatalf("unexpected drone defaults: %+v", cfg.Drone)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := write(t, `
mqtt:
  token: "abc123"
  topic: "lab/camara"
capture:
  timeout_seconds: 30
  interval_seconds: 60
image:
  format: jpeg
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Capture.Timeout() != 30*time.Second {
		t.Fatalf("capture timeout not overridable: %s", cfg.Capture.Timeout())
	}
	if cfg.MQTT.Topic != "lab/camara" {
		t.Fatalf("topic not overridable: %s", cfg.MQTT.Topic)
	}
	if cfg.Image.Format != "jpeg" {
		t.Fatalf("format not overridable: %s", cfg.Image.Format)
	}
}

func TestLoadRejectsMissingToken(t *testing.T) {
	path := write(t, `
serial:
  port: /dev/ttyACM0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing mqtt token")
	}
}

func TestLoadRejectsBadScale(t *testing.T) {
	path := write(t, `
mqtt:
  token: "abc123"
image:
  scale: -3
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for negative scale")
	}
}
