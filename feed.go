package tiktok

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FeedState is where the feed loader stopped.
type FeedState string

const (
	FeedScrolling FeedState = "scrolling"
	FeedStable    FeedState = "stable"
	// FeedExhausted means the iteration cap was hit first. Callers carry on
	// with whatever loaded.
	FeedExhausted FeedState = "exhausted"
)

// FeedOptions tunes the scroll loop. None of the numbers are contractual.
type FeedOptions struct {
	NoChangeThreshold int
	MaxAttempts       int
	SettleDelay       time.Duration
	NudgeDistance     int
	NudgeDelay        time.Duration
	TopDelay          time.Duration
}

// DefaultFeedOptions returns values tuned against TikTok's lazy loader.
func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		NoChangeThreshold: 5,
		MaxAttempts:       100,
		SettleDelay:       6 * time.Second,
		NudgeDistance:     500,
		NudgeDelay:        2 * time.Second,
		TopDelay:          3 * time.Second,
	}
}

// FeedResult summarizes one feed load.
type FeedResult struct {
	State    FeedState
	Items    int
	Attempts int
	Height   int
}

// FeedLoader scrolls a lazily paginated feed until it stops growing.
type FeedLoader struct {
	opts  FeedOptions
	items Cascade
	pacer *Pacer
	log   zerolog.Logger
}

// NewFeedLoader creates a loader that counts items with the given cascade.
func NewFeedLoader(opts FeedOptions, items Cascade, pacer *Pacer, log zerolog.Logger) *FeedLoader {
	if opts.NoChangeThreshold <= 0 {
		opts.NoChangeThreshold = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 100
	}
	return &FeedLoader{opts: opts, items: items, pacer: pacer, log: log}
}

// Load scrolls until the page height has not changed for NoChangeThreshold
// consecutive iterations, or until MaxAttempts iterations ran. It always
// returns; browser errors count as "no change" and cancellation ends the
// loop early.
func (f *FeedLoader) Load(ctx context.Context, page Page) FeedResult {
	start := time.Now()
	res := FeedResult{State: FeedScrolling}

	lastHeight := f.height(ctx, page, 0)
	noChange := 0

	for noChange < f.opts.NoChangeThreshold && res.Attempts < f.opts.MaxAttempts {
		if ctx.Err() != nil {
			break
		}
		res.Attempts++

		before := f.count(ctx, page)
		if err := page.ScrollToBottom(ctx); err != nil {
			f.log.Warn().Err(err).Int("attempt", res.Attempts).Msg("scroll to bottom failed")
		}
		if err := f.pacer.Settle(ctx, f.opts.SettleDelay); err != nil {
			break
		}

		newHeight := f.height(ctx, page, lastHeight)
		after := f.count(ctx, page)

		if newHeight == lastHeight {
			noChange++
			f.log.Debug().
				Int("attempt", res.Attempts).
				Int("no_change", noChange).
				Int("threshold", f.opts.NoChangeThreshold).
				Int("videos", after).
				Msg("no height change")
			continue
		}

		noChange = 0
		lastHeight = newHeight
		f.log.Info().
			Int("attempt", res.Attempts).
			Int("videos", after).
			Int("loaded", after-before).
			Msg("feed expanded")
		f.nudge(ctx, page)
	}

	res.Height = lastHeight
	res.Items = f.count(ctx, page)
	if noChange >= f.opts.NoChangeThreshold {
		res.State = FeedStable
	} else {
		res.State = FeedExhausted
		f.log.Warn().
			Int("attempts", res.Attempts).
			Int("videos", res.Items).
			Msg("stopped scrolling before the feed settled, more videos may exist")
	}

	if err := page.ScrollToTop(ctx); err != nil {
		f.log.Warn().Err(err).Msg("scroll to top failed")
	}
	_ = f.pacer.Settle(ctx, f.opts.TopDelay)

	f.log.Info().
		Str("state", string(res.State)).
		Int("videos", res.Items).
		Int("attempts", res.Attempts).
		Dur("took", time.Since(start)).
		Msg("feed loaded")
	return res
}

// nudge scrolls a little past the bottom and back, which fires lazy-load
// triggers a single full-height jump can skip.
func (f *FeedLoader) nudge(ctx context.Context, page Page) {
	if err := page.ScrollBy(ctx, f.opts.NudgeDistance); err != nil {
		f.log.Debug().Err(err).Msg("nudge scroll failed")
	}
	if err := f.pacer.Settle(ctx, f.opts.NudgeDelay); err != nil {
		return
	}
	if err := page.ScrollToBottom(ctx); err != nil {
		f.log.Debug().Err(err).Msg("nudge scroll failed")
	}
	_ = f.pacer.Settle(ctx, f.opts.NudgeDelay)
}

func (f *FeedLoader) height(ctx context.Context, page Page, fallback int) int {
	h, err := page.ScrollHeight(ctx)
	if err != nil {
		f.log.Warn().Err(err).Msg("could not read page height")
		return fallback
	}
	return h
}

func (f *FeedLoader) count(ctx context.Context, page Page) int {
	_, n := resolveFeed(ctx, page, f.items, f.log)
	return n
}
