// Package config defines task configuration structures and loading hooks.
//
// Conventions:
// - New() returns the defaults; Load layers a YAML file and env vars on top.
// - The loaded Config is treated as immutable and handed to components by value.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// TaskID names this task in logs and pushed metrics.
	TaskID string `koanf:"task_id" validate:"required"`

	// Source is the ClickHouse endpoint queried for weekend aggregates.
	Source SourceConfig `koanf:"source"`

	// Sink references the SQLite database by connection alias.
	Sink SinkConfig `koanf:"sink"`

	// Connections holds the pre-registered connection profiles, keyed by alias.
	Connections map[string]ConnectionProfile `koanf:"connections" validate:"required,dive"`

	// Metrics configures the optional Pushgateway export.
	Metrics MetricsConfig `koanf:"metrics"`
}

// SourceConfig describes the analytical store connection.
type SourceConfig struct {
	Host     string `koanf:"host" validate:"required,hostname_rfc1123|ip"`
	Port     int    `koanf:"port" validate:"min=1,max=65535"`
	Database string `koanf:"database" validate:"required"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`
	// Secure enables TLS on the native protocol.
	Secure bool `koanf:"secure"`

	DialTimeout time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	ReadTimeout time.Duration `koanf:"read_timeout" validate:"gt=0"`
	// MaxExecutionTime is sent to the server as a query limit; zero leaves the server default.
	MaxExecutionTime time.Duration `koanf:"max_execution_time" validate:"gte=0"`
}

// SinkConfig points at a connection profile.
type SinkConfig struct {
	ConnID string `koanf:"conn_id" validate:"required"`
}

// ConnectionProfile is a registered SQLite connection.
type ConnectionProfile struct {
	// Path is the database file. It must already exist.
	Path        string        `koanf:"path" validate:"required"`
	BusyTimeout time.Duration `koanf:"busy_timeout" validate:"gte=0"`
}

// MetricsConfig configures metric export for the batch run.
type MetricsConfig struct {
	// PushgatewayURL enables pushing run metrics when set.
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	Job            string `koanf:"job" validate:"required"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		TaskID:    "insert_into_sqlite",
		Source: SourceConfig{
			// Public Altinity demo cluster.
			Host:             "github.demo.trial.altinity.cloud",
			Port:             9440,
			Database:         "default",
			User:             "demo",
			Password:         "demo",
			Secure:           true,
			DialTimeout:      10 * time.Second,
			ReadTimeout:      5 * time.Minute,
			MaxExecutionTime: 0,
		},
		Sink: SinkConfig{
			ConnID: "my_sqlite_conn",
		},
		Connections: map[string]ConnectionProfile{
			"my_sqlite_conn": {
				Path:        "metrics.db",
				BusyTimeout: 5 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Job: "tripsync",
		},
	}
}

// SinkProfile resolves the sink alias against the registered connections.
// Aliases match case-insensitively.
func (c *Config) SinkProfile() (ConnectionProfile, error) {
	if p, ok := c.Connections[c.Sink.ConnID]; ok {
		return p, nil
	}
	for alias, p := range c.Connections {
		if strings.EqualFold(alias, c.Sink.ConnID) {
			return p, nil
		}
	}
	return ConnectionProfile{}, fmt.Errorf("%w: unknown connection alias %q", ErrInvalidConfig, c.Sink.ConnID)
}
