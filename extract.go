package tiktok

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const absentMetric = "0"

// Extractor reads the metrics of one feed item by opening its detail view.
type Extractor struct {
	sel    Selectors
	pacer  *Pacer
	pacing PacingOptions
	log    zerolog.Logger
	now    func() time.Time
}

// NewExtractor creates an Extractor using the given selectors and pacing.
func NewExtractor(sel Selectors, pacer *Pacer, pacing PacingOptions, log zerolog.Logger) *Extractor {
	return &Extractor{sel: sel, pacer: pacer, pacing: pacing, log: log, now: time.Now}
}

// Extract opens the index-th feed item, reads its metrics and navigates back
// to the feed. The item list is re-queried first since any earlier
// navigation invalidates what was resolved before.
//
// ErrItemNotFound means the index is past the end of the feed. An error
// wrapping ErrRecoveryFailed means the page could not be taken back to the
// feed; the record is still returned when the metrics were read.
func (e *Extractor) Extract(ctx context.Context, page Page, index int) (rec VideoRecord, err error) {
	start := time.Now()
	log := e.log.With().Int("index", index).Logger()

	feed, n := resolveFeed(ctx, page, e.sel.FeedItems, log)
	if index >= n {
		return VideoRecord{}, fmt.Errorf("item %d of %d: %w", index, n, ErrItemNotFound)
	}

	feedLookup := func(ctx context.Context, sel string) (string, bool, error) {
		return page.ItemText(ctx, feed.Selector, index, sel)
	}
	views, by, ok := e.sel.FeedViews.First(ctx, log, feedLookup)
	if ok {
		log.Debug().Str("locator", by.Name).Str("views", views).Msg("views read from feed")
	} else {
		log.Debug().Msg("no view count on feed item")
	}

	if _, err := e.pacer.Pause(ctx, e.pacing.BeforeClick); err != nil {
		return VideoRecord{}, err
	}
	clicked, err := page.ClickItem(ctx, feed.Selector, index)
	if err != nil {
		return VideoRecord{}, fmt.Errorf("open item %d: %w", index, err)
	}
	if !clicked {
		return VideoRecord{}, fmt.Errorf("open item %d: %w", index, ErrItemNotFound)
	}

	// From here on the page is on the detail view and has to go back.
	defer func() {
		if berr := e.back(ctx, page); berr != nil {
			err = errors.Join(err, fmt.Errorf("item %d: %w: %w", index, ErrRecoveryFailed, berr))
		}
	}()

	if _, err := e.pacer.Pause(ctx, e.pacing.AfterLoad); err != nil {
		return VideoRecord{}, err
	}

	// A feed counter of 0 is as good as none; the detail view gets a try.
	raw := map[Metric]string{}
	if ok && ParseCount(views) > 0 {
		raw[MetricViews] = views
	}
	for _, m := range Metrics {
		if _, done := raw[m]; done {
			continue
		}
		raw[m] = e.readMetric(ctx, page, m, log)
	}
	if ok && views != "" && ParseCount(raw[MetricViews]) == 0 {
		raw[MetricViews] = views
	}
	if ctx.Err() != nil {
		return VideoRecord{}, ctx.Err()
	}

	videoURL, err := page.URL(ctx)
	if err != nil {
		return VideoRecord{}, fmt.Errorf("item %d: %w", index, err)
	}

	rec = VideoRecord{
		VideoURL:     videoURL,
		ViewsRaw:     orAbsent(raw[MetricViews]),
		LikesRaw:     orAbsent(raw[MetricLikes]),
		BookmarksRaw: orAbsent(raw[MetricBookmarks]),
		CommentsRaw:  orAbsent(raw[MetricComments]),
		ScrapedAt:    e.now(),
	}
	rec.Views = ParseCount(rec.ViewsRaw)
	rec.Likes = ParseCount(rec.LikesRaw)
	rec.Bookmarks = ParseCount(rec.BookmarksRaw)
	rec.Comments = ParseCount(rec.CommentsRaw)

	log.Info().
		Str("url", rec.VideoURL).
		Int64("views", rec.Views).
		Int64("likes", rec.Likes).
		Int64("bookmarks", rec.Bookmarks).
		Int64("comments", rec.Comments).
		Dur("took", time.Since(start)).
		Msg("video scraped")
	return rec, nil
}

// readMetric tries the exact locator for m, then the looser fallbacks when
// the exact one found nothing or only a zero.
func (e *Extractor) readMetric(ctx context.Context, page Page, m Metric, log zerolog.Logger) string {
	log = log.With().Str("metric", string(m)).Logger()

	text, by, ok := e.sel.Primary[m].First(ctx, log, page.Text)
	if ok && ParseCount(text) > 0 {
		log.Debug().Str("locator", by.Name).Str("raw", text).Msg("metric found")
		return text
	}

	fb, fbBy, fbOK := e.sel.Fallback[m].First(ctx, log, page.Text)
	if fbOK {
		log.Warn().Str("locator", fbBy.Name).Str("raw", fb).Msg("primary locator missed, used fallback")
		return fb
	}
	if ok {
		return text
	}
	log.Warn().Int("fallbacks", len(e.sel.Fallback[m])).Msg("metric not found, fallbacks exhausted")
	return absentMetric
}

func (e *Extractor) back(ctx context.Context, page Page) error {
	if _, err := e.pacer.Pause(ctx, e.pacing.BeforeBack); err != nil {
		return err
	}
	return page.Back(ctx)
}

func orAbsent(raw string) string {
	if raw == "" {
		return absentMetric
	}
	return raw
}
