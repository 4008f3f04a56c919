package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "TRIPSYNC_"
	envConfigFile = envPrefix + "CONFIG"
	// envNesting separates nested keys in variable names: TRIPSYNC_SOURCE__HOST -> source.host.
	envNesting = "__"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TRIPSYNC_CONFIG is set
//  3. env (prefix TRIPSYNC_)
//
// Keys are case-insensitive. Environment names can only carry one case, so
// file keys are lowercased too and connection aliases are stored lowercase:
// an alias "Analytics" in the file is overridden by
// TRIPSYNC_CONNECTIONS__ANALYTICS__PATH.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
		for key, val := range fk.All() {
			if err := k.Set(strings.ToLower(key), val); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, key, err)
			}
		}
	}

	// Underscores inside a key are kept so they match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfigFile {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal on top of the defaults.
	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the sink alias resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.SinkProfile(); err != nil {
		return err
	}
	return nil
}
