package tiktok

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// OutputMode selects how records are grouped into files.
type OutputMode string

const (
	// ModePerProfile writes one file per profile as soon as it finishes.
	ModePerProfile OutputMode = "per_profile"
	// ModeCombined writes every profile's records to one file at the end.
	ModeCombined OutputMode = "combined"
)

// ParseOutputMode accepts the mode names and the 1/2 menu choices of the
// interactive prompt.
func ParseOutputMode(s string) (OutputMode, error) {
	switch s {
	case "1", string(ModePerProfile), "separate":
		return ModePerProfile, nil
	case "2", string(ModeCombined):
		return ModeCombined, nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// Aggregator routes finished profiles to the sink according to the output
// mode. In combined mode it only ever appends.
type Aggregator struct {
	mode     OutputMode
	sink     *CSVSink
	log      zerolog.Logger
	combined []VideoRecord
}

// NewAggregator creates an Aggregator writing through sink.
func NewAggregator(mode OutputMode, sink *CSVSink, log zerolog.Logger) *Aggregator {
	return &Aggregator{mode: mode, sink: sink, log: log}
}

// Add accepts one profile's records. In per-profile mode they are written
// immediately and the file path is returned; in combined mode they are held
// until Flush and the path is empty.
func (a *Aggregator) Add(target ProfileTarget, records []VideoRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	if a.mode == ModeCombined {
		for _, r := range records {
			r.ProfileName = target.Name
			r.ProfileURL = target.URL
			a.combined = append(a.combined, r)
		}
		return "", nil
	}

	path, err := a.sink.WriteProfile(target.Name, records)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", target.Name, err)
	}
	a.log.Info().Str("file", path).Int("videos", len(records)).Msg("saved profile")
	logSummary(a.log, Summarize(target.Name, records), "profile summary")
	return path, nil
}

// Flush writes the combined file. It does nothing in per-profile mode or
// when no records were collected.
func (a *Aggregator) Flush() (string, error) {
	if a.mode != ModeCombined || len(a.combined) == 0 {
		return "", nil
	}
	path, err := a.sink.WriteCombined(a.combined)
	if err != nil {
		return "", fmt.Errorf("save combined: %w", err)
	}
	a.log.Info().Str("file", path).Int("videos", len(a.combined)).Msg("saved combined file")
	for _, s := range SummarizeByProfile(a.combined) {
		logSummary(a.log, s, "profile summary")
	}
	return path, nil
}

// ProfileScraper runs one profile pass. *Orchestrator implements it.
type ProfileScraper interface {
	ScrapeProfile(ctx context.Context, target ProfileTarget) (*ScrapeSession, error)
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	Mode            OutputMode
	BetweenProfiles Range
	Logger          zerolog.Logger
}

// Batch scrapes queued profiles one after another.
type Batch struct {
	scraper ProfileScraper
	sink    *CSVSink
	pacer   *Pacer
	opts    BatchOptions
}

// NewBatch creates a Batch. A nil sink writes to DefaultOutputDir.
func NewBatch(scraper ProfileScraper, sink *CSVSink, opts BatchOptions) *Batch {
	if sink == nil {
		sink = NewCSVSink("")
	}
	if opts.Mode == "" {
		opts.Mode = ModePerProfile
	}
	return &Batch{scraper: scraper, sink: sink, pacer: NewPacer(), opts: opts}
}

// Run scrapes every target in order. A profile that fails or yields nothing
// is recorded in the summary and the run moves on; only cancellation stops
// it early, in which case whatever was collected is still saved and ctx.Err()
// is returned.
func (b *Batch) Run(ctx context.Context, targets []ProfileTarget) (RunSummary, error) {
	start := time.Now()
	log := b.opts.Logger
	agg := NewAggregator(b.opts.Mode, b.sink, log)
	sum := RunSummary{Queued: len(targets), Failures: map[string]error{}}

	log.Info().Int("profiles", len(targets)).Str("mode", string(b.opts.Mode)).Msg("starting batch")

	var runErr error
	for i, t := range targets {
		plog := log.With().Int("n", i+1).Int("of", len(targets)).Str("url", t.URL).Logger()
		plog.Info().Msg("processing profile")

		sess, err := b.scraper.ScrapeProfile(ctx, t)
		var records []VideoRecord
		if sess != nil {
			records = sess.Records
		}
		if ctx.Err() != nil {
			b.interrupted(ctx, &sum, agg, t, records, plog)
			for _, rest := range targets[i+1:] {
				b.fail(&sum, rest, fmt.Errorf("not started: %w", ctx.Err()))
			}
			runErr = ctx.Err()
			break
		}

		switch {
		case err != nil:
			plog.Error().Err(err).Msg("profile failed")
			b.fail(&sum, t, err)
		case len(records) == 0:
			plog.Warn().Msg("profile failed: no data extracted")
			b.fail(&sum, t, ErrNoItems)
		default:
			path, err := agg.Add(t, records)
			if err != nil {
				plog.Error().Err(err).Msg("profile failed")
				b.fail(&sum, t, err)
				break
			}
			if path != "" {
				sum.Files = append(sum.Files, path)
				sum.Profiles = append(sum.Profiles, Summarize(t.Name, records))
			}
			sum.Succeeded++
			plog.Info().Int("videos", len(records)).Msg("profile completed")
		}

		if i < len(targets)-1 {
			if _, err := b.pacer.Pause(ctx, b.opts.BetweenProfiles); err != nil {
				runErr = err
				break
			}
		}
	}

	path, err := agg.Flush()
	if err != nil {
		log.Error().Err(err).Msg("could not save combined file")
		runErr = errors.Join(runErr, err)
	}
	if path != "" {
		sum.Files = append(sum.Files, path)
		sum.Profiles = SummarizeByProfile(agg.combined)
	}
	for _, p := range sum.Profiles {
		sum.Total.Videos += p.Videos
		sum.Total.Views += p.Views
		sum.Total.Likes += p.Likes
		sum.Total.Bookmarks += p.Bookmarks
		sum.Total.Comments += p.Comments
	}
	sum.Total.ProfileName = "total"

	log.Info().
		Int("queued", sum.Queued).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Int("videos", sum.Total.Videos).
		Int64("views", sum.Total.Views).
		Int64("likes", sum.Total.Likes).
		Int64("bookmarks", sum.Total.Bookmarks).
		Int64("comments", sum.Total.Comments).
		Dur("took", time.Since(start)).
		Msg("batch finished")
	return sum, runErr
}

// interrupted keeps what a cancelled pass gathered. Saved partial records
// count the profile as succeeded, anything else as failed.
func (b *Batch) interrupted(ctx context.Context, sum *RunSummary, agg *Aggregator, t ProfileTarget, records []VideoRecord, log zerolog.Logger) {
	if len(records) == 0 {
		b.fail(sum, t, ctx.Err())
		return
	}
	path, err := agg.Add(t, records)
	if err != nil {
		log.Error().Err(err).Msg("could not save partial profile")
		b.fail(sum, t, errors.Join(ctx.Err(), err))
		return
	}
	if path != "" {
		sum.Files = append(sum.Files, path)
		sum.Profiles = append(sum.Profiles, Summarize(t.Name, records))
	}
	sum.Succeeded++
	log.Warn().Int("videos", len(records)).Msg("profile interrupted, partial data kept")
}

func (b *Batch) fail(sum *RunSummary, t ProfileTarget, err error) {
	sum.Failed++
	sum.Failures[t.URL] = err
}
