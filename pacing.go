package tiktok

import (
	"context"
	"math/rand/v2"
	"time"
)

// Range bounds a randomized pause.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// PacingOptions holds the pause ranges used around browser actions.
type PacingOptions struct {
	BeforeClick    Range
	AfterLoad      Range
	BeforeBack     Range
	BetweenItems   Range
	BetweenProfile Range
	AfterNavigate  Range
}

// DefaultPacing mirrors the 1-2s human-ish pauses the scraper has always used.
func DefaultPacing() PacingOptions {
	r := Range{Min: 1 * time.Second, Max: 2 * time.Second}
	return PacingOptions{
		BeforeClick:    r,
		AfterLoad:      r,
		BeforeBack:     r,
		BetweenItems:   r,
		BetweenProfile: r,
		AfterNavigate:  r,
	}
}

// Pacer blocks the single control flow for randomized or fixed intervals.
// Every wait is cut short by context cancellation.
type Pacer struct {
	sleep func(ctx context.Context, d time.Duration) error
	rand  func(n int64) int64
}

// NewPacer returns a Pacer backed by real timers.
func NewPacer() *Pacer {
	return &Pacer{sleep: sleepContext, rand: rand.Int64N}
}

// Pause sleeps for a uniformly sampled duration in r and reports it.
func (p *Pacer) Pause(ctx context.Context, r Range) (time.Duration, error) {
	d := p.sample(r)
	if err := p.sleep(ctx, d); err != nil {
		return 0, err
	}
	return d, nil
}

// Settle sleeps for a fixed duration. Content loading waits use this rather
// than Pause since they need to outlast network latency, not look human.
func (p *Pacer) Settle(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

func (p *Pacer) sample(r Range) time.Duration {
	lo, hi := r.Min, r.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	span := int64(hi - lo)
	if span <= 0 {
		return lo
	}
	return lo + time.Duration(p.rand(span+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
