package tiktok

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// In-memory browser used by the feed, extractor and orchestrator tests
// ---------------------------------------------------------------------------

const (
	fakeProfileURL = "https://www.tiktok.com/@alice"
	fakeItemSel    = `a[href*="/video/"]`
)

// fakeItem is one video tile. feed holds the texts inside the tile on the
// profile grid; detail holds the texts on the opened video, by selector.
type fakeItem struct {
	url     string
	feed    map[string]string
	detail  map[string]string
	urlErr  error
	// backErr makes navigating back from this item fail.
	backErr error
}

// fakePage serves a lazily loading grid. Each scroll to the bottom reveals
// batch more items until all are loaded. When endless is set the height
// grows on every scroll and the feed never settles. Tiles only match
// itemSel, so other feed locators count zero.
type fakePage struct {
	items   []fakeItem
	itemSel string
	loaded  int
	batch   int
	endless bool
	grown   int

	detail   int
	texts    []string
	clicks   []int
	backs    int
	onClick  func(i int)
	visited  string
	navErr   error
	countErr error
}

func newFakePage(items []fakeItem) *fakePage {
	return &fakePage{items: items, itemSel: fakeItemSel, loaded: len(items), batch: len(items), detail: -1}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if p.navErr != nil {
		return p.navErr
	}
	p.visited = url
	return nil
}

func (p *fakePage) Back(ctx context.Context) error {
	p.backs++
	if p.detail >= 0 && p.items[p.detail].backErr != nil {
		return p.items[p.detail].backErr
	}
	p.detail = -1
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	if p.detail < 0 {
		return fakeProfileURL, nil
	}
	it := p.items[p.detail]
	if it.urlErr != nil {
		return "", it.urlErr
	}
	return it.url, nil
}

func (p *fakePage) ScrollHeight(ctx context.Context) (int, error) {
	return (p.loaded + p.grown) * 100, nil
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	if p.endless {
		p.grown++
		return nil
	}
	p.loaded = min(p.loaded+p.batch, len(p.items))
	return nil
}

func (p *fakePage) ScrollToTop(ctx context.Context) error { return nil }
func (p *fakePage) ScrollBy(ctx context.Context, dy int) error { return nil }

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	if p.countErr != nil {
		return 0, p.countErr
	}
	if selector != p.itemSel {
		return 0, nil
	}
	return p.loaded, nil
}

func (p *fakePage) ItemText(ctx context.Context, itemSelector string, index int, selector string) (string, bool, error) {
	if itemSelector != p.itemSel || index >= p.loaded {
		return "", false, nil
	}
	t, ok := p.items[index].feed[selector]
	return t, ok, nil
}

func (p *fakePage) ClickItem(ctx context.Context, itemSelector string, index int) (bool, error) {
	if itemSelector != p.itemSel || index >= p.loaded {
		return false, nil
	}
	p.clicks = append(p.clicks, index)
	p.detail = index
	if p.onClick != nil {
		p.onClick(index)
	}
	return true, nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, bool, error) {
	p.texts = append(p.texts, selector)
	if p.detail < 0 {
		return "", false, nil
	}
	t, ok := p.items[p.detail].detail[selector]
	return t, ok, nil
}

type fakeBrowser struct {
	page    Page
	pageErr error
	closes  int
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closes++
	return nil
}

func (b *fakeBrowser) launcher() Launcher {
	return func(ctx context.Context) (Browser, error) { return b, nil }
}

// instantPacer never sleeps but still honors cancellation. It records every
// requested duration.
func instantPacer() (*Pacer, *[]time.Duration) {
	var slept []time.Duration
	p := &Pacer{
		sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return ctx.Err()
		},
		rand: func(n int64) int64 { return 0 },
	}
	return p, &slept
}

// videoItem builds a tile whose detail view shows the given counters on
// the primary locators.
func videoItem(id int, views, likes, bookmarks, comments string) fakeItem {
	sel := DefaultSelectors()
	detail := map[string]string{}
	for m, v := range map[Metric]string{MetricLikes: likes, MetricBookmarks: bookmarks, MetricComments: comments} {
		if v != "" {
			detail[sel.Primary[m][0].Selector] = v
		}
	}
	feed := map[string]string{}
	if views != "" {
		feed[sel.FeedViews[0].Selector] = views
	}
	return fakeItem{
		url:    fmt.Sprintf("%s/video/%d", fakeProfileURL, id),
		feed:   feed,
		detail: detail,
	}
}

var errFakeBrowser = errors.New("fake browser failure")
