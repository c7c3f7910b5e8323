// Package config loads logfan pipeline settings from YAML files and
// environment variables, validates them, and translates them into the
// engine configuration the library consumes.
package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/logfan"
)

// Config is the root configuration for a logfan pipeline.
type Config struct {
	// Level is the default minimum severity for registrations built from
	// this configuration.
	Level string `koanf:"level" validate:"required"`

	Flush   FlushSettings   `koanf:"flush"`
	Console ConsoleSettings `koanf:"console"`

	k *koanf.Koanf
}

// FlushSettings mirrors logfan.FlushConfig in configuration form.
type FlushSettings struct {
	MaxLength        int           `koanf:"maxlength" validate:"gt=0"`
	MaxRetries       int           `koanf:"maxretries" validate:"gte=0"`
	RetryDelay       time.Duration `koanf:"retrydelay" validate:"gte=0"`
	ProgressiveDelay bool          `koanf:"progressivedelay"`
}

// ConsoleSettings configures the bundled console target.
type ConsoleSettings struct {
	Enabled bool   `koanf:"enabled"`
	Pretty  bool   `koanf:"pretty"`
	Level   string `koanf:"level"`
}

// FlushConfig translates the settings into an engine configuration.
// Fallback, Name and OnSignal stay with the host: they are runtime wiring,
// not configuration data.
func (s FlushSettings) FlushConfig() logfan.FlushConfig {
	return logfan.FlushConfig{
		MaxLength:        s.MaxLength,
		MaxRetries:       s.MaxRetries,
		RetryDelay:       s.RetryDelay,
		ProgressiveDelay: s.ProgressiveDelay,
	}
}

// MinSeverity parses the configured default threshold.
func (c *Config) MinSeverity() (logfan.Severity, error) {
	return logfan.ParseSeverity(c.Level)
}

// ConsoleSeverity parses the console target threshold, falling back to the
// pipeline default when unset.
func (c *Config) ConsoleSeverity() (logfan.Severity, error) {
	if c.Console.Level == "" {
		return c.MinSeverity()
	}
	return logfan.ParseSeverity(c.Console.Level)
}

// Raw exposes the underlying koanf instance for host-specific keys.
func (c *Config) Raw() *koanf.Koanf {
	return c.k
}
