package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dbw/core/control"
	"github.com/kilianp07/dbw/core/metrics"
	"github.com/kilianp07/dbw/core/twist"
	"github.com/kilianp07/dbw/infra/mqtt"
)

// Config is the full node configuration, read once at startup. An invalid
// vehicle or control section keeps the process from starting.
type Config struct {
	MQTT    mqtt.Config         `json:"mqtt"`
	Control control.Config      `json:"control"`
	Vehicle twist.VehicleConfig `json:"vehicle"`
	Metrics metrics.Config      `json:"metrics"`
}

// Load reads the configuration file, applies DBW_ environment overrides,
// fills defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. DBW_MQTT__BROKER.
	if err := k.Load(env.Provider("DBW_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dbw_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Control.SetDefaults()
	cfg.Vehicle.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Control.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Vehicle.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
