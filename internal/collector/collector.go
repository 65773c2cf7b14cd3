// Package collector polls the feed and appends one observation per product
// to the price history.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	"github.com/ahmethakanbesel/bazaar-history/internal/feed"
	"github.com/ahmethakanbesel/bazaar-history/internal/metrics"
	"github.com/ahmethakanbesel/bazaar-history/internal/observation"
)

var (
	// ErrCycleInProgress is returned when RunOnce is called while another
	// cycle has not finished. The call is skipped, not queued.
	ErrCycleInProgress = errors.New("collection cycle already in progress")

	// ErrFeedRejected is returned when the feed answers with success=false.
	ErrFeedRejected = errors.New("feed reported success=false")
)

// Appender is the write side of the price history.
type Appender interface {
	Append(ctx context.Context, o observation.Observation) (observation.Observation, error)
}

type Status string

const (
	StatusStored   Status = "stored"
	StatusPartial  Status = "partial"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Result describes the outcome of one cycle.
type Result struct {
	Status    Status
	Timestamp int64 // shared by every observation of the cycle, ms since epoch
	Products  int
	Invalid   int // products the feed listed without a usable quote
	Stored    int
	Failed    int
	Duration  time.Duration
}

type Collector struct {
	source  feed.Source
	store   Appender
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	inFlight atomic.Bool
}

// New creates a Collector with the given options applied.
func New(source feed.Source, store Appender, opts ...Option) *Collector {
	c := &Collector{
		source:  source,
		store:   store,
		timeout: 30 * time.Second,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures a Collector.
type Option func(*Collector)

// WithTimeout bounds the feed call of each cycle.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) { c.timeout = d }
}

// WithClock overrides the time source used for observation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// RunOnce performs one fetch-then-append cycle. Only one cycle runs at a
// time; a concurrent call returns StatusSkipped and ErrCycleInProgress.
//
// A failed or rejected fetch writes nothing. On success every product gets
// one observation stamped with the same timestamp; a failed append is counted
// and reported in the returned error but does not stop the remaining ones.
func (c *Collector) RunOnce(ctx context.Context) (Result, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		metrics.CollectorCycles.WithLabelValues(string(StatusSkipped)).Inc()
		return Result{Status: StatusSkipped}, ErrCycleInProgress
	}
	defer c.inFlight.Store(false)

	start := time.Now()
	res, err := c.cycle(ctx)
	res.Duration = time.Since(start)

	metrics.CollectorCycles.WithLabelValues(string(res.Status)).Inc()
	metrics.CycleDuration.Observe(res.Duration.Seconds())
	metrics.ObservationsStored.Add(float64(res.Stored))
	metrics.AppendFailures.Add(float64(res.Failed))
	if res.Status == StatusStored {
		metrics.LastSuccess.SetToCurrentTime()
	}

	return res, err
}

func (c *Collector) cycle(ctx context.Context) (Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	snap, err := c.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		if !errors.Is(err, apperror.ErrUpstreamFetch) {
			err = fmt.Errorf("%w: %w", apperror.ErrUpstreamFetch, err)
		}
		return Result{Status: StatusFailed}, fmt.Errorf("fetch %s: %w", c.source.Name(), err)
	}
	if !snap.Success {
		return Result{Status: StatusRejected}, ErrFeedRejected
	}

	res := Result{
		Timestamp: c.now().UnixMilli(),
		Products:  len(snap.Products),
		Invalid:   len(snap.Skipped),
	}
	if res.Invalid > 0 {
		c.logger.Warn("collector: skipping products without a usable quote",
			"count", res.Invalid, "products", snap.Skipped)
	}

	var errs []error
	for _, p := range snap.Products {
		_, err := c.store.Append(ctx, observation.Observation{
			ProductID:  p.ID,
			BuyPrice:   p.Quote.BuyPrice,
			SellPrice:  p.Quote.SellPrice,
			BuyVolume:  p.Quote.BuyVolume,
			SellVolume: p.Quote.SellVolume,
			Timestamp:  res.Timestamp,
		})
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			continue
		}
		res.Stored++
	}

	if res.Failed > 0 {
		res.Status = StatusPartial
		return res, errors.Join(errs...)
	}
	res.Status = StatusStored
	return res, nil
}
