// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package config loads service configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the full service configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Reset    ResetConfig    `koanf:"reset"`
	Site     SiteConfig     `koanf:"site"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// RedisConfig configures the reset-token store connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// ResetConfig configures password-reset issuance.
type ResetConfig struct {
	Enabled        bool   `koanf:"enabled"`
	TTLSeconds     int    `koanf:"ttl_seconds"`
	MaxOutstanding int    `koanf:"max_outstanding"`
	Sender         string `koanf:"sender"`
}

// SiteConfig configures externally visible addresses.
type SiteConfig struct {
	BaseURL string `koanf:"base_url"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability HTTP server.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// TTL returns the reset token lifetime as a duration.
func (r ResetConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// Default returns a Config populated with defaults. Password reset is
// disabled unless explicitly turned on, matching the behavior relay
// operators expect from a fresh install.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/chimehook",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Reset: ResetConfig{
			Enabled:        false,
			TTLSeconds:     86400,
			MaxOutstanding: 5,
			Sender:         "noreply@localhost",
		},
		Site: SiteConfig{
			BaseURL: "http://localhost:8080",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads configuration from path (if non-empty) and overlays any set
// flags from fs. Missing files are an error; flag-only operation passes an
// empty path.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	return cfg, nil
}
