// Package app runs the weekend metrics task: read everything from the source,
// then write it to the sink in one transaction.
package app

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/okian/tripsync/internal/domain/model"
	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/internal/domain/types"
	"github.com/okian/tripsync/pkg/logger"
	"github.com/okian/tripsync/pkg/metrics"
)

// DefaultTaskID identifies the task when none is configured.
const DefaultTaskID = "insert_into_sqlite"

// Result describes one finished run.
type Result struct {
	RunID       string
	TaskID      string
	State       State
	RowsFetched int
	RowsWritten int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes the task. A Runner holds no per-run state and may be reused.
type Runner struct {
	source types.SourceConnector
	sink   types.SinkConnector

	taskID   string
	logger   logger.Logger
	now      func() time.Time
	newRunID func() string
}

// New constructs a Runner over the given connectors.
func New(source types.SourceConnector, sink types.SinkConnector, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		sink:     sink,
		taskID:   DefaultTaskID,
		logger:   logger.Get(),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one run. A non-nil error is always a *taskerr.Error, and both
// connections are released before Run returns.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	res = Result{
		RunID:     r.newRunID(),
		TaskID:    r.taskID,
		StartedAt: r.now(),
	}
	log := r.logger.With(
		logger.String("task_id", res.TaskID),
		logger.String("run_id", res.RunID),
	)
	st := newRunState(log)

	defer func() {
		res.State = State(st.Current())
		res.FinishedAt = r.now()
		metrics.RecordRun(string(res.State), res.Duration(), res.FinishedAt, res.State == StateCommitted)
		log.Info(ctx, "run finished",
			logger.String("state", string(res.State)),
			logger.Int("rows_fetched", res.RowsFetched),
			logger.Int("rows_written", res.RowsWritten),
			logger.Duration("took", res.Duration()))
	}()

	var (
		src types.Source
		snk types.Sink
	)
	defer func() {
		r.release(ctx, log, "sink", snk)
		r.release(ctx, log, "source", src)
	}()

	log.Info(ctx, "run started")

	// Both connections are opened before anything is read.
	r.advance(ctx, log, st, eventConnect)
	started := r.now()
	if src, err = r.source.Connect(ctx); err != nil {
		return res, r.fail(ctx, log, st, err, taskerr.KindConnection, taskerr.PhaseConnect, "source")
	}
	if snk, err = r.sink.Connect(ctx); err != nil {
		return res, r.fail(ctx, log, st, err, taskerr.KindConnection, taskerr.PhaseConnect, "sink")
	}
	metrics.RecordPhase(string(taskerr.PhaseConnect), r.now().Sub(started))

	r.advance(ctx, log, st, eventFetch)
	started = r.now()
	var rows []model.MetricRow
	if rows, err = src.Fetch(ctx); err != nil {
		return res, r.fail(ctx, log, st, err, taskerr.KindQuery, taskerr.PhaseFetch, "source")
	}
	res.RowsFetched = len(rows)
	metrics.RecordRowsFetched(len(rows))
	metrics.RecordPhase(string(taskerr.PhaseFetch), r.now().Sub(started))
	log.Debug(ctx, "rows fetched", logger.Int("rows", len(rows)))

	r.advance(ctx, log, st, eventWrite)
	started = r.now()
	if res.RowsWritten, err = snk.WriteAll(ctx, rows); err != nil {
		res.RowsWritten = 0
		return res, r.fail(ctx, log, st, err, taskerr.KindWrite, taskerr.PhaseWrite, "sink")
	}
	metrics.RecordRowsWritten(res.RowsWritten)
	metrics.RecordPhase(string(taskerr.PhaseWrite), r.now().Sub(started))

	r.advance(ctx, log, st, eventCommit)
	return res, nil
}

// fail classifies err, moves the run to failed and logs it once.
func (r *Runner) fail(
	ctx context.Context,
	log logger.Logger,
	st *fsm.FSM,
	err error,
	kind taskerr.Kind,
	phase taskerr.Phase,
	component string,
) error {
	te := taskerr.Classify(err, kind, phase, component)
	r.advance(ctx, log, st, eventFail)
	metrics.RecordError(string(te.Phase), string(te.Kind))
	log.Error(ctx, "run failed",
		logger.String("phase", string(te.Phase)),
		logger.String("kind", string(te.Kind)),
		logger.String("component", te.Component),
		logger.Bool("retryable", te.Retryable()),
		logger.Error(te.Err))
	return te
}

// advance fires event. The state machine must keep working after the run
// context is cancelled, so cancellation is stripped.
func (r *Runner) advance(ctx context.Context, log logger.Logger, st *fsm.FSM, event string) {
	if err := st.Event(context.WithoutCancel(ctx), event); err != nil {
		log.Warn(ctx, "state transition rejected",
			logger.String("event", event),
			logger.String("state", st.Current()),
			logger.Error(err))
	}
}

// release closes c when it was opened. Errors are logged and counted only; the
// outcome of the run is already decided.
func (r *Runner) release(ctx context.Context, log logger.Logger, component string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		metrics.RecordReleaseFailure(component)
		log.Warn(ctx, "release failed",
			logger.String("component", component),
			logger.String("phase", string(taskerr.PhaseRelease)),
			logger.Error(err))
		return
	}
	log.Debug(ctx, "released", logger.String("component", component))
}
