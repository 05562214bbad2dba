// Package config provides configuration and plan loading for prprunner.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/prprunner/internal/logging"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	envPrefix = "PRPRUNNER_"
)

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PRPRUNNER_OUTPUT_ROOT, PRPRUNNER_TRACKER_BASE_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// A missing file is not an error; defaults plus environment apply. Files
// larger than 1MB or writable by other users are rejected.
//
// Environment variables map to config keys by stripping the prefix and
// splitting on the first underscore: PRPRUNNER_TRACKER_BASE_URL ->
// tracker.base_url.
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			// Open once and validate through the file descriptor to avoid a
			// TOCTOU window between validation and read.
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if err := validateConfigFileProperties(info); err != nil {
				return nil, fmt.Errorf("config file validation failed: %w", err)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}

			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// PRPRUNNER_TRACKER_BASE_URL -> tracker.base_url: strip the prefix,
		// lowercase, split on the first underscore only, keep the rest as
		// the field name.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfigFileProperties checks file size and write permissions.
// Takes FileInfo from an already-opened descriptor.
func validateConfigFileProperties(info os.FileInfo) error {
	if !info.Mode().IsRegular() {
		return fmt.Errorf("config file is not a regular file")
	}

	// Group/other-writable config files can be tampered with by other users.
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		return fmt.Errorf("insecure config file permissions: %v (must not be group/other writable)", perm)
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Output.Root == "" {
		cfg.Output.Root = "artifacts"
	}

	if cfg.Validation.MinContentLength == 0 {
		cfg.Validation.MinContentLength = 100
	}

	if cfg.Tracker.Timeout == 0 {
		cfg.Tracker.Timeout = 5 * time.Second
	}
	if cfg.Tracker.RequestsPerSecond == 0 {
		cfg.Tracker.RequestsPerSecond = 10
	}

	if cfg.Logging == nil {
		cfg.Logging = logging.NewDefaultConfig()
	}
}
