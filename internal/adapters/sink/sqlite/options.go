package sqlite

import (
	"time"

	"github.com/okian/tripsync/pkg/logger"
)

// Option applies a configuration option to the Connector.
type Option func(*Connector)

// WithBusyTimeout sets how long a write waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// WithTable overrides the target table.
func WithTable(name string) Option {
	return func(c *Connector) {
		if name != "" {
			c.table = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Connector) {
		if l != nil {
			c.logger = l
		}
	}
}
