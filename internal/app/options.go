package app

import (
	"time"

	"github.com/okian/tripsync/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTaskID sets the task identifier reported in logs, results and metrics.
func WithTaskID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.taskID = id
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunIDGenerator replaces how run ids are minted.
func WithRunIDGenerator(gen func() string) Option {
	return func(r *Runner) {
		if gen != nil {
			r.newRunID = gen
		}
	}
}
