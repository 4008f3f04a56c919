// Package clickhouse reads weekend trip metrics from ClickHouse.
package clickhouse

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/internal/domain/types"
	"github.com/okian/tripsync/pkg/logger"
)

const component = "source"

// Conn is the subset of a ClickHouse connection the reader uses.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// Dialer opens a Conn from driver options.
type Dialer func(ctx context.Context, opts *ch.Options) (Conn, error)

// Connector holds immutable source connection settings.
type Connector struct {
	host             string
	port             int
	database         string
	user             string
	password         string
	secure           bool
	dialTimeout      time.Duration
	readTimeout      time.Duration
	maxExecutionTime time.Duration

	dial   Dialer
	logger logger.Logger
}

var _ types.SourceConnector = (*Connector)(nil)

// New constructs a Connector. Defaults point at a local server on 9000.
func New(opts ...Option) *Connector {
	c := &Connector{
		host:        "localhost",
		port:        9000,
		database:    "default",
		user:        "default",
		dialTimeout: 10 * time.Second,
		readTimeout: 5 * time.Minute,
		dial:        openNative,
		logger:      logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("clickhouse")
	return c
}

// Addr returns host:port.
func (c *Connector) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Options returns the driver options the connector dials with.
func (c *Connector) Options() *ch.Options {
	opts := &ch.Options{
		Addr: []string{c.Addr()},
		Auth: ch.Auth{
			Database: c.database,
			Username: c.user,
			Password: c.password,
		},
		DialTimeout: c.dialTimeout,
		ReadTimeout: c.readTimeout,
		Settings: ch.Settings{
			"join_use_nulls": 1,
		},
	}
	if c.secure {
		opts.TLS = &tls.Config{ServerName: c.host, MinVersion: tls.VersionTLS12}
	}
	if c.maxExecutionTime > 0 {
		opts.Settings["max_execution_time"] = int(c.maxExecutionTime / time.Second)
	}
	return opts
}

// Connect opens and pings a connection. Any failure is a connection error.
func (c *Connector) Connect(ctx context.Context) (types.Source, error) {
	c.logger.Debug(ctx, "connecting",
		logger.String("addr", c.Addr()),
		logger.String("database", c.database),
		logger.Bool("secure", c.secure))

	conn, err := c.dial(ctx, c.Options())
	if err != nil {
		c.logger.Error(ctx, "open failed", logger.String("addr", c.Addr()), logger.Error(err))
		return nil, taskerr.Connection(component, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		c.logger.Error(ctx, "ping failed", logger.String("addr", c.Addr()), logger.Error(err))
		return nil, taskerr.Connection(component, err)
	}

	c.logger.Info(ctx, "connected", logger.String("addr", c.Addr()))
	return &Session{conn: conn, logger: c.logger}, nil
}

func openNative(_ context.Context, opts *ch.Options) (Conn, error) {
	return ch.Open(opts)
}
