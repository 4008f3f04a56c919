// Package sqlite appends weekend trip metrics to a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/internal/domain/types"
	"github.com/okian/tripsync/pkg/logger"
)

const (
	component = "sink"

	// DefaultTable is the table rows are appended to.
	DefaultTable = "metric_data"
)

// Connector holds the resolved sink connection profile.
type Connector struct {
	path        string
	table       string
	busyTimeout time.Duration
	logger      logger.Logger
}

var _ types.SinkConnector = (*Connector)(nil)

// New constructs a Connector for the database file at path.
func New(path string, opts ...Option) *Connector {
	c := &Connector{
		path:        path,
		table:       DefaultTable,
		busyTimeout: 5 * time.Second,
		logger:      logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("sqlite")
	return c
}

// DSN returns the driver data source name. The file is opened read-write and
// never created, so a wrong path fails at connect time.
func (c *Connector) DSN() string {
	q := url.Values{}
	q.Set("mode", "rw")
	q.Set("_busy_timeout", fmt.Sprint(c.busyTimeout.Milliseconds()))
	return "file:" + escapePath(c.path) + "?" + q.Encode()
}

// escapePath percent-encodes each segment of path so '?', '#' and '%' in file
// names cannot end the path part of the URI.
func escapePath(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// Connect opens and pings the database. Any failure is a connection error.
func (c *Connector) Connect(ctx context.Context) (types.Sink, error) {
	c.logger.Debug(ctx, "connecting", logger.String("path", c.path))

	db, err := sql.Open("sqlite3", c.DSN())
	if err != nil {
		c.logger.Error(ctx, "open failed", logger.String("path", c.path), logger.Error(err))
		return nil, taskerr.Connection(component, err)
	}
	// One writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		c.logger.Error(ctx, "ping failed", logger.String("path", c.path), logger.Error(err))
		return nil, taskerr.Connection(component, fmt.Errorf("open %s: %w", c.path, err))
	}

	stmt, err := insertStatement(c.table)
	if err != nil {
		_ = db.Close()
		return nil, taskerr.Connection(component, err)
	}

	c.logger.Info(ctx, "connected", logger.String("path", c.path))
	return &Session{db: db, insert: stmt, logger: c.logger}, nil
}
