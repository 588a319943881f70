// Package config builds the startup configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config selects the concrete collaborators wired in at startup.
type Config struct {
	// AudioBackend is "null" (no device) or "memory" (software device).
	AudioBackend string        `env:"DESKCORDER_AUDIO" envDefault:"memory"`
	SampleRate   int           `env:"DESKCORDER_SAMPLE_RATE" envDefault:"44100"`
	TickInterval time.Duration `env:"DESKCORDER_TICK" envDefault:"50ms"`
	SaveVersion  string        `env:"DESKCORDER_SAVE_VERSION" envDefault:"0.3.0"`
	CatalogPath  string        `env:"DESKCORDER_CATALOG"`
	LogLevel     string        `env:"DESKCORDER_LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"DESKCORDER_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"DESKCORDER_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no collaborator can be built from.
func (c Config) Validate() error {
	switch c.AudioBackend {
	case "null", "memory":
	default:
		return fmt.Errorf("unknown audio backend %q (want null or memory)", c.AudioBackend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	return nil
}
