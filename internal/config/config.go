// Package config loads the YAML service configuration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pixelmend/inpaint/internal/engine"
)

// Config is the top-level service configuration.
type Config struct {
	Engine engine.Options `yaml:"engine"`
	Server ServerConfig   `yaml:"server"`
}

// ServerConfig tunes the stdio service.
type ServerConfig struct {
	// MaxConcurrent bounds how many reconstructions run at once; further
	// requests wait for a slot.
	MaxConcurrent int `yaml:"max_concurrent"`

	// RequestTimeout is the per-request deadline.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Duration decodes YAML strings like "30s" or "2m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: *engine.DefaultOptions(),
		Server: ServerConfig{
			MaxConcurrent:  runtime.GOMAXPROCS(0),
			RequestTimeout: Duration(30 * time.Second),
		},
	}
}

// Load reads a YAML file over the defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Server.MaxConcurrent < 1 {
		cfg.Server.MaxConcurrent = 1
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = Default().Server.RequestTimeout
	}
	return cfg, nil
}
