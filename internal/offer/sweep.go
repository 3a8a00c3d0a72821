package offer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	offermetrics "github.com/tomassolanoprieto/subprice/internal/offer/metrics"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// Sweeper expires qualified offers that outlived their validity window.
//
// Each offer is moved individually through the same compare-and-swap as
// customer decisions, so a customer accepting at the moment of the sweep
// wins or loses cleanly, never both.
type Sweeper struct {
	offers  Store
	logger  *slog.Logger
	metrics *offermetrics.Metrics
}

func NewSweeper(offers Store, logger *slog.Logger, metrics *offermetrics.Metrics) *Sweeper {
	return &Sweeper{offers: offers, logger: logger, metrics: metrics}
}

// Start runs periodic sweeps until ctx is cancelled. Individual sweep
// failures are logged and retried on the next tick.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx, time.Now()); err != nil && s.logger != nil {
				s.logger.ErrorContext(ctx, "offer expiry sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepOnce expires every qualified offer whose window closed at or before
// now and returns how many it moved. Offers decided concurrently are
// skipped, not errors.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := s.offers.ListQualifiedBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range due {
		_, err := s.offers.TransitionStatus(ctx, o.ID, StatusQualified, StatusExpired, o.Version, now)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrNotFound):
			// The customer got there first.
		default:
			return expired, err
		}
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
	}

	s.metrics.AddExpirations(expired)
	if expired > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired qualified offers", "count", expired)
	}
	return expired, nil
}
