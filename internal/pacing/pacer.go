// Package pacing enforces the minimum inter-delivery interval that
// protects provider-side rate limits.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates successive delivery attempts. Implementations are not
// safe for concurrent use; the dispatch loop is sequential by design.
type Pacer interface {
	// Wait blocks until the next delivery may proceed or the context
	// is cancelled.
	Wait(ctx context.Context) error
}

// Factory yields a fresh pacer per campaign so the interval applies
// between entries within a campaign, never across campaign boundaries.
type Factory func() Pacer

// NewFactory builds interval pacers with the given spacing.
func NewFactory(interval time.Duration) Factory {
	return func() Pacer {
		return NewIntervalPacer(interval)
	}
}

type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a token-bucket pacer. Burst 1 means the
// first Wait is immediate and each subsequent Wait is spaced by at
// least the interval.
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		interval = time.Second
	}
	return &intervalPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
