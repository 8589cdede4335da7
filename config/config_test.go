package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "dbw-node"
  username: "user"
  password: "pass"
  use_tls: false
control:
  sampling_rate_hz: 20
vehicle:
  vehicle_mass_kg: 1500.0
  wheel_base_m: 2.7
metrics:
  prometheus_enabled: true
  prometheus_port: ":9200"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "dbw-node"},
		{"username", cfg.MQTT.Username, "user"},
		{"sampling_rate_hz", cfg.Control.SamplingRateHz, 20.0},
		{"vehicle_mass_kg", cfg.Vehicle.VehicleMass, 1500.0},
		{"wheel_base_m", cfg.Vehicle.WheelBase, 2.7},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9200"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Control.SamplingRateHz != 50 {
		t.Fatalf("sampling rate default = %v, want 50", cfg.Control.SamplingRateHz)
	}
	if cfg.Vehicle.VehicleMass != 1736.35 {
		t.Fatalf("vehicle mass default = %v", cfg.Vehicle.VehicleMass)
	}
	if cfg.Vehicle.DecelLimit != -5 {
		t.Fatalf("decel limit default = %v", cfg.Vehicle.DecelLimit)
	}
	if cfg.MQTT.Topics.Throttle != "vehicle/throttle_cmd" {
		t.Fatalf("throttle topic default = %v", cfg.MQTT.Topics.Throttle)
	}
	if cfg.MQTT.ClientID == "" {
		t.Fatalf("client id not generated")
	}
}

func TestLoadRejectsInvalidVehicle(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
vehicle:
  vehicle_mass_kg: -10.0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid vehicle mass accepted")
	}
}

func TestLoadRejectsInvalidSamplingRate(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
control:
  sampling_rate_hz: -50
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("negative sampling rate accepted")
	}
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	path := writeConfig(t, `control:
  sampling_rate_hz: 50
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("missing broker accepted")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("unsupported format accepted")
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `mqtt:
  broker: "tcp://localhost:1883"
`)
	t.Setenv("DBW_CONTROL__SAMPLING_RATE_HZ", "25")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Control.SamplingRateHz != 25 {
		t.Fatalf("env override ignored, sampling rate = %v", cfg.Control.SamplingRateHz)
	}
}
