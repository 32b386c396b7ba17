package tiktok

import (
	"context"

	"github.com/rs/zerolog"
)

// Locator is one way of selecting an element.
type Locator struct {
	Name     string
	Selector string
}

// Cascade is an ordered list of locators, tried until one matches.
type Cascade []Locator

// lookupFunc reads the text behind one selector. Errors count as a miss.
type lookupFunc func(ctx context.Context, selector string) (string, bool, error)

// First returns the text of the first locator that matches. Exhausting the
// cascade is not an error: ok is false and the caller uses its default.
func (c Cascade) First(ctx context.Context, log zerolog.Logger, lookup lookupFunc) (text string, by Locator, ok bool) {
	for _, loc := range c {
		if ctx.Err() != nil {
			return "", Locator{}, false
		}
		t, found, err := lookup(ctx, loc.Selector)
		if err != nil {
			log.Debug().Err(err).Str("locator", loc.Name).Msg("locator attempt failed")
			continue
		}
		if found {
			return t, loc, true
		}
	}
	return "", Locator{}, false
}

// resolveFeed finds the first feed-item locator that matches anything and
// returns it with the current item count.
func resolveFeed(ctx context.Context, page Page, items Cascade, log zerolog.Logger) (Locator, int) {
	for _, loc := range items {
		n, err := page.Count(ctx, loc.Selector)
		if err != nil {
			log.Debug().Err(err).Str("locator", loc.Name).Msg("feed locator failed")
			continue
		}
		if n > 0 {
			return loc, n
		}
	}
	return Locator{}, 0
}
