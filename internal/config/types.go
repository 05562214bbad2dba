package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/prprunner/internal/logging"
	"github.com/fyrsmithlabs/prprunner/internal/tracker"
)

// Config is the full prprunner configuration.
type Config struct {
	Output     OutputConfig     `koanf:"output"`
	Validation ValidationConfig `koanf:"validation"`
	Tracker    TrackerConfig    `koanf:"tracker"`
	Logging    *logging.Config  `koanf:"logging"`
}

// OutputConfig locates the artifact output root.
type OutputConfig struct {
	// Root is the directory under which feature scopes are created.
	Root string `koanf:"root"`
}

// ValidationConfig tunes the per-task validation gate.
type ValidationConfig struct {
	// MinContentLength is the character count below which an artifact is
	// treated as too short (default: 100).
	MinContentLength int `koanf:"min_content_length"`
}

// TrackerConfig configures the optional external tracker.
type TrackerConfig struct {
	// Enabled turns tracker mirroring on. The pipeline runs identically
	// with it off; status updates are simply skipped.
	Enabled bool `koanf:"enabled"`

	// BaseURL is the tracker service root.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds each tracker request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond paces tracker calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ClientConfig converts the tracker section into a client config.
func (t TrackerConfig) ClientConfig() *tracker.ClientConfig {
	return &tracker.ClientConfig{
		BaseURL:           t.BaseURL,
		Timeout:           t.Timeout,
		RequestsPerSecond: t.RequestsPerSecond,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Output.Root == "" {
		return fmt.Errorf("output root is required")
	}
	if c.Validation.MinContentLength < 0 {
		return fmt.Errorf("validation min_content_length must be >= 0, got %d", c.Validation.MinContentLength)
	}
	if c.Tracker.Enabled && c.Tracker.BaseURL == "" {
		return fmt.Errorf("tracker base_url is required when tracker is enabled")
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}
	return nil
}
