package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tripsync/internal/adapters/sink/sqlite"
	"github.com/okian/tripsync/internal/adapters/source/clickhouse"
	"github.com/okian/tripsync/internal/app"
	"github.com/okian/tripsync/internal/config"
	"github.com/okian/tripsync/internal/domain/taskerr"
	"github.com/okian/tripsync/pkg/logger"
	"github.com/okian/tripsync/pkg/metrics"
)

const pushTimeout = 10 * time.Second

func main() {
	// Root context with cancel on SIGINT/SIGTERM. A cancelled run rolls back
	// and exits non-zero, so the scheduler can retry it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one task run and returns the process exit code.
func run(ctx context.Context, stdout, stderr io.Writer) int {
	if err := logger.Init(logger.WithWriter(stdout)); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = io.WriteString(stderr, "failed to initialize logging: "+err.Error()+"\n")
		return taskerr.ExitUnclassified
	}
	defer func() { _ = logger.Sync() }()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = io.WriteString(stderr, "failed to load config: "+err.Error()+"\n")
		return taskerr.ExitConfig
	}

	if err := logger.Init(logger.WithWriter(stdout), logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = io.WriteString(stderr, "failed to initialize logging: "+err.Error()+"\n")
		return taskerr.ExitUnclassified
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	profile, err := cfg.SinkProfile()
	if err != nil {
		log.Error(ctx, "sink connection not configured", logger.String("conn_id", cfg.Sink.ConnID), logger.Error(err))
		return taskerr.ExitConfig
	}

	source := clickhouse.New(
		clickhouse.WithAddr(cfg.Source.Host, cfg.Source.Port),
		clickhouse.WithAuth(cfg.Source.Database, cfg.Source.User, cfg.Source.Password),
		clickhouse.WithSecure(cfg.Source.Secure),
		clickhouse.WithDialTimeout(cfg.Source.DialTimeout),
		clickhouse.WithReadTimeout(cfg.Source.ReadTimeout),
		clickhouse.WithMaxExecutionTime(cfg.Source.MaxExecutionTime),
		clickhouse.WithLogger(log),
	)
	sink := sqlite.New(profile.Path,
		sqlite.WithBusyTimeout(profile.BusyTimeout),
		sqlite.WithLogger(log),
	)

	runner := app.New(source, sink,
		app.WithLogger(log.Named("runner")),
		app.WithTaskID(cfg.TaskID),
	)

	res, runErr := runner.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, metrics.GetRegistry(),
			map[string]string{"task_id": cfg.TaskID})
		cancel()
		if err != nil {
			log.Warn(ctx, "metrics push failed", logger.String("url", cfg.Metrics.PushgatewayURL), logger.Error(err))
		}
	}

	if runErr != nil {
		return taskerr.ExitCode(runErr)
	}
	log.Info(ctx, "task succeeded",
		logger.String("run_id", res.RunID),
		logger.Int("rows_written", res.RowsWritten))
	return taskerr.ExitOK
}
