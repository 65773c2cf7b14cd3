package observation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/bazaar-history/internal/feed"
)

type Service struct {
	repo   Repository
	source feed.Source
	now    func() time.Time
}

func NewService(repo Repository, source feed.Source, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		source: source,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

// WithClock overrides the time source used to compute history windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Current fetches the live snapshot and returns the upstream body unmodified.
// Nothing is cached or stored.
func (s *Service) Current(ctx context.Context) (json.RawMessage, error) {
	snap, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Raw, nil
}

// HistoryFor returns the observations of one product inside the window,
// oldest first.
func (s *Service) HistoryFor(ctx context.Context, req HistoryRequest) ([]Observation, error) {
	if err := req.ValidateProduct(); err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryRange(ctx, req.ProductID, s.since(req.Hours, DefaultProductHours))
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", req.ProductID, err)
	}
	return rows, nil
}

// HistoryAll returns every product's observations inside the window, grouped
// by product.
func (s *Service) HistoryAll(ctx context.Context, req HistoryRequest) (*Grouped, error) {
	if err := req.ValidateAll(); err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryRangeAll(ctx, s.since(req.Hours, DefaultAllHours))
	if err != nil {
		return nil, fmt.Errorf("history all: %w", err)
	}
	return GroupByProduct(rows), nil
}

func (s *Service) since(hours, fallback float64) int64 {
	if hours == 0 {
		hours = fallback
	}
	return s.now().UnixMilli() - int64(hours*float64(time.Hour/time.Millisecond))
}
