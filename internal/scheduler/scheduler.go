package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Options configures Run.
type Options struct {
	// RunOnStart runs the job once before waiting for the first tick.
	RunOnStart bool
	Logger     *slog.Logger
}

// Run calls job at every tick of the cron expression spec until ctx is done.
// A tick that fires while the previous job is still running is skipped.
// Run blocks until the running job, if any, has returned.
func Run(ctx context.Context, spec string, job func(ctx context.Context), opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}

	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	if opts.RunOnStart {
		job(ctx)
	}

	c.Start()
	logger.Info("scheduler started", "schedule", spec, "next", c.Entries()[0].Next)

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
	return nil
}

// cronLogger routes the cron library's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
