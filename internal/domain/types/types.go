// Package types declares the ports between the task runner and its adapters.
package types

import (
	"context"

	"github.com/okian/tripsync/internal/domain/model"
)

// Source is an open read session against the analytical store.
type Source interface {
	// Fetch runs the aggregation and returns every row. Calling it twice on
	// unchanged data returns the same rows.
	Fetch(ctx context.Context) ([]model.MetricRow, error)
	Close() error
}

// SourceConnector opens Source sessions.
type SourceConnector interface {
	Connect(ctx context.Context) (Source, error)
}

// Sink is an open write session against the local relational store.
type Sink interface {
	// WriteAll appends rows in one transaction and returns how many were
	// written. On error nothing from the batch is persisted.
	WriteAll(ctx context.Context, rows []model.MetricRow) (int, error)
	Close() error
}

// SinkConnector opens Sink sessions.
type SinkConnector interface {
	Connect(ctx context.Context) (Sink, error)
}
