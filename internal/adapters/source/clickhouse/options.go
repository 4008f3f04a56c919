package clickhouse

import (
	"time"

	"github.com/okian/tripsync/pkg/logger"
)

// Option applies a configuration option to the Connector.
type Option func(*Connector)

// WithAddr sets the native-protocol endpoint.
func WithAddr(host string, port int) Option {
	return func(c *Connector) {
		if host != "" {
			c.host = host
		}
		if port > 0 {
			c.port = port
		}
	}
}

// WithAuth sets the database and credentials.
func WithAuth(database, user, password string) Option {
	return func(c *Connector) {
		if database != "" {
			c.database = database
		}
		c.user = user
		c.password = password
	}
}

// WithSecure enables TLS.
func WithSecure(secure bool) Option {
	return func(c *Connector) {
		c.secure = secure
	}
}

// WithDialTimeout bounds how long opening the connection may take.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithReadTimeout bounds a single read from the server.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WithMaxExecutionTime sets the server-side max_execution_time for the query.
// Zero leaves the server default in place.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(c *Connector) {
		if d >= 0 {
			c.maxExecutionTime = d
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

// WithDialer replaces how connections are opened.
func WithDialer(d Dialer) Option {
	return func(c *Connector) {
		if d != nil {
			c.dial = d
		}
	}
}
