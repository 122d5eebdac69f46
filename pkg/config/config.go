// Package config loads ldcp-go's runtime configuration the way
// tinyland-inc-tinyclaw's pkg/config does: defaults, then an optional YAML
// file, then an environment-variable overlay (SPEC_FULL.md §2.2).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs a ldcp-go client needs: where the device
// lives, how its data channel is reached, how long to wait for a reply, and
// where to send optional telemetry.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DeviceConfig addresses the rangefinder and tunes the session's per-call
// behavior.
type DeviceConfig struct {
	Address         string        `yaml:"address" env:"LDCP_DEVICE_ADDRESS"`
	ControlPort     uint16        `yaml:"control_port" env:"LDCP_DEVICE_CONTROL_PORT"`
	DataChannelPort uint16        `yaml:"data_channel_port" env:"LDCP_DEVICE_DATA_CHANNEL_PORT"`
	DefaultTimeout  time.Duration `yaml:"default_timeout" env:"LDCP_DEVICE_DEFAULT_TIMEOUT"`
}

// TelemetryConfig points at the optional event sink (pkg/telemetry). An
// empty Address disables telemetry entirely.
type TelemetryConfig struct {
	Address         string  `yaml:"address" env:"LDCP_TELEMETRY_ADDRESS"`
	Password        string  `yaml:"password" env:"LDCP_TELEMETRY_PASSWORD"`
	DB              int     `yaml:"db" env:"LDCP_TELEMETRY_DB"`
	Channel         string  `yaml:"channel" env:"LDCP_TELEMETRY_CHANNEL"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" env:"LDCP_TELEMETRY_RATE_LIMIT_PER_SEC"`
}

// Default returns the configuration a client starts from before any file
// or environment overlay is applied.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ControlPort:     5000,
			DataChannelPort: 6000,
			DefaultTimeout:  3 * time.Second,
		},
		Telemetry: TelemetryConfig{
			DB:              0,
			Channel:         "ldcp:events",
			RateLimitPerSec: 20,
		},
	}
}

// Load builds a Config starting from Default, overlaying path's YAML
// contents if it exists, then overlaying environment variables — the same
// precedence order tinyland-inc-tinyclaw's LoadConfig uses for its own
// JSON-plus-env config. A missing file at path is not an error: Default
// alone is returned, further overlaid by the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// no config file: defaults plus environment only
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	return cfg, nil
}
