package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task runs a Collector on a fixed interval. It owns the cron scheduler so
// the schedule has an explicit Start/Stop lifecycle.
type Task struct {
	collector  *Collector
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithRunOnStart runs one cycle immediately when the task starts.
func WithRunOnStart(v bool) TaskOption {
	return func(t *Task) { t.runOnStart = v }
}

// WithTaskLogger sets the logger. A nil logger keeps slog.Default().
func WithTaskLogger(l *slog.Logger) TaskOption {
	return func(t *Task) {
		if l != nil {
			t.logger = l
		}
	}
}

func NewTask(c *Collector, interval time.Duration, opts ...TaskOption) *Task {
	t := &Task{
		collector:  c,
		interval:   interval,
		runOnStart: true,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start schedules the collector every interval. Cycles run with a context
// derived from ctx that Stop cancels.
func (t *Task) Start(ctx context.Context) error {
	if t.cron != nil {
		return errors.New("collector task already started")
	}

	t.ctx, t.cancel = context.WithCancel(ctx)
	logger := cronLogger{t.logger}
	t.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := t.cron.AddFunc("@every "+t.interval.String(), t.tick); err != nil {
		t.cancel()
		t.cron = nil
		return fmt.Errorf("schedule collector: %w", err)
	}
	t.cron.Start()

	if t.runOnStart {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.tick()
		}()
	}

	t.logger.Info("collector task started", "interval", t.interval, "runOnStart", t.runOnStart)
	return nil
}

// Stop cancels the in-flight cycle and waits for it to return, or for ctx to
// expire.
func (t *Task) Stop(ctx context.Context) error {
	if t.cron == nil {
		return nil
	}
	t.cancel()
	cronCtx := t.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("collector task stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) tick() {
	res, err := t.collector.RunOnce(t.ctx)
	t.logResult(res, err)
}

func (t *Task) logResult(res Result, err error) {
	switch res.Status {
	case StatusStored:
		t.logger.Info("collector: stored observations",
			"products", res.Products, "timestamp", res.Timestamp, "duration", res.Duration.String())
	case StatusPartial:
		t.logger.Error("collector: some observations were not stored",
			"products", res.Products, "stored", res.Stored, "failed", res.Failed, "error", err)
	case StatusSkipped:
		t.logger.Warn("collector: previous cycle still running, skipping")
	case StatusRejected:
		t.logger.Warn("collector: feed rejected request, nothing stored", "error", err)
	default:
		t.logger.Error("collector: cycle failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
