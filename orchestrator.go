package tiktok

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionState is the phase a profile pass is in.
type SessionState string

const (
	StateInitializing SessionState = "initializing"
	StateLoading      SessionState = "loading"
	StateEnumerating  SessionState = "enumerating"
	StatePerItem      SessionState = "per_item"
	StateFinalizing   SessionState = "finalizing"
)

// ScrapeSession is the state of one profile pass. The orchestrator owns it;
// it is handed back with the result and not reused.
type ScrapeSession struct {
	Target     ProfileTarget
	State      SessionState
	Feed       FeedResult
	Discovered int
	Planned    int
	Records    []VideoRecord
	Skipped    []int
	// Declared is the video count the profile reports about itself, 0 when
	// the lookup is off or failed.
	Declared int
}

func (s *ScrapeSession) enter(state SessionState, log zerolog.Logger) {
	s.State = state
	log.Debug().Str("state", string(state)).Msg("session state")
}

// ProfileLookup fetches what a profile says about itself. *Scraper
// implements it.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, username string) (Author, error)
}

// OrchestratorOptions configures a profile pass.
type OrchestratorOptions struct {
	// MaxVideos caps how many feed items are visited; 0 visits all.
	MaxVideos   int
	InitialWait time.Duration
	Pacing      PacingOptions
	Feed        FeedOptions
	Selectors   Selectors
	Logger      zerolog.Logger
	// Lookup, when set, cross-checks the feed against the profile's
	// declared video count.
	Lookup ProfileLookup
}

// DefaultOrchestratorOptions returns options for a full, unlimited pass.
func DefaultOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{
		InitialWait: 5 * time.Second,
		Pacing:      DefaultPacing(),
		Feed:        DefaultFeedOptions(),
		Selectors:   DefaultSelectors(),
		Logger:      zerolog.Nop(),
	}
}

// Orchestrator runs one profile pass at a time: launch a browser, load the
// whole feed, extract every item, release the browser.
type Orchestrator struct {
	launch    Launcher
	opts      OrchestratorOptions
	pacer     *Pacer
	feed      *FeedLoader
	extractor *Extractor
}

// NewOrchestrator creates an Orchestrator that gets its browsers from launch.
func NewOrchestrator(launch Launcher, opts OrchestratorOptions) *Orchestrator {
	return newOrchestrator(launch, opts, NewPacer())
}

func newOrchestrator(launch Launcher, opts OrchestratorOptions, pacer *Pacer) *Orchestrator {
	return &Orchestrator{
		launch:    launch,
		opts:      opts,
		pacer:     pacer,
		feed:      NewFeedLoader(opts.Feed, opts.Selectors.FeedItems, pacer, opts.Logger),
		extractor: NewExtractor(opts.Selectors, pacer, opts.Pacing, opts.Logger),
	}
}

// ScrapeProfile runs one full pass over target. A feed with no items is not
// an error: the session simply has no records. When ctx is cancelled the
// records gathered so far are returned together with ctx.Err(). The browser
// is released exactly once on every path out.
func (o *Orchestrator) ScrapeProfile(ctx context.Context, target ProfileTarget) (*ScrapeSession, error) {
	start := time.Now()
	log := o.opts.Logger.With().Str("profile", target.Name).Logger()
	sess := &ScrapeSession{Target: target}

	sess.enter(StateInitializing, log)
	browser, err := o.launch(ctx)
	if err != nil {
		return sess, fmt.Errorf("launch browser for %s: %w", target.Name, err)
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := browser.Close(); err != nil {
				log.Warn().Err(err).Msg("close browser")
				return
			}
			log.Debug().Msg("browser closed")
		})
	}
	defer release()

	page, err := browser.NewPage(ctx)
	if err != nil {
		return sess, fmt.Errorf("open page for %s: %w", target.Name, err)
	}
	if err := page.Navigate(ctx, target.URL); err != nil {
		return sess, fmt.Errorf("open profile %s: %w", target.Name, err)
	}
	waited, err := o.pacer.Pause(ctx, o.opts.Pacing.AfterNavigate)
	if err != nil {
		return sess, err
	}
	log.Debug().Dur("waited", waited).Msg("profile opened")
	if err := o.pacer.Settle(ctx, o.opts.InitialWait); err != nil {
		return sess, err
	}

	sess.enter(StateLoading, log)
	sess.Feed = o.feed.Load(ctx, page)
	if err := ctx.Err(); err != nil {
		return sess, err
	}

	sess.enter(StateEnumerating, log)
	o.crossCheck(ctx, sess, log)
	_, sess.Discovered = resolveFeed(ctx, page, o.opts.Selectors.FeedItems, log)
	sess.Planned = sess.Discovered
	if o.opts.MaxVideos > 0 && sess.Planned > o.opts.MaxVideos {
		sess.Planned = o.opts.MaxVideos
	}
	if sess.Planned == 0 {
		log.Warn().Msg("no videos found on profile")
		sess.enter(StateFinalizing, log)
		return sess, nil
	}
	log.Info().Int("found", sess.Discovered).Int("planned", sess.Planned).Msg("scraping videos")

	if _, err := o.pacer.Pause(ctx, o.opts.Pacing.BetweenItems); err != nil {
		return sess, err
	}

	sess.enter(StatePerItem, log)
items:
	for i := 0; i < sess.Planned; i++ {
		if i > 0 {
			if _, err := o.pacer.Pause(ctx, o.opts.Pacing.BetweenItems); err != nil {
				return sess, err
			}
		}
		log.Debug().Int("index", i).Int("of", sess.Planned).Msg("processing video")

		rec, err := o.extractor.Extract(ctx, page, i)
		if ctx.Err() != nil {
			return sess, ctx.Err()
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrItemNotFound):
			log.Warn().Int("index", i).Msg("video not in the refreshed feed, stopping")
			break items
		case errors.Is(err, ErrRecoveryFailed) && rec.VideoURL != "":
			log.Warn().Err(err).Int("index", i).Msg("video scraped but the feed was not restored")
		default:
			log.Warn().Err(err).Int("index", i).Msg("skipping video")
			sess.Skipped = append(sess.Skipped, i)
			continue
		}

		rec.ProfileName = target.Name
		rec.ProfileURL = target.URL
		sess.Records = append(sess.Records, rec)
	}

	sess.enter(StateFinalizing, log)
	release()
	log.Info().
		Int("videos", len(sess.Records)).
		Int("skipped", len(sess.Skipped)).
		Dur("took", time.Since(start)).
		Msg("profile done")
	return sess, nil
}

// crossCheck compares the loaded feed with what the profile declares. It
// only ever warns.
func (o *Orchestrator) crossCheck(ctx context.Context, sess *ScrapeSession, log zerolog.Logger) {
	if o.opts.Lookup == nil {
		return
	}
	author, err := o.opts.Lookup.LookupProfile(ctx, sess.Target.Name)
	if err != nil {
		log.Warn().Err(err).Msg("profile lookup failed, skipping video count check")
		return
	}
	sess.Declared = author.VideoCount
	if sess.Feed.Items < author.VideoCount {
		log.Warn().
			Int("loaded", sess.Feed.Items).
			Int("declared", author.VideoCount).
			Msg("feed loaded fewer videos than the profile reports")
	}
}
