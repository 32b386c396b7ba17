package tiktok

import (
	"context"
	"fmt"
)

// Page is the slice of browser automation the scraper needs. Feed items are
// addressed by (itemSelector, index) and re-resolved on every call, so no
// element handle ever outlives a navigation.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	URL(ctx context.Context) (string, error)

	ScrollHeight(ctx context.Context) (int, error)
	ScrollToBottom(ctx context.Context) error
	ScrollToTop(ctx context.Context) error
	ScrollBy(ctx context.Context, dy int) error

	// Count returns the number of elements matching selector.
	Count(ctx context.Context, selector string) (int, error)
	// ItemText returns the text of the first element matching selector inside
	// the index-th element matching itemSelector.
	ItemText(ctx context.Context, itemSelector string, index int, selector string) (string, bool, error)
	// ClickItem activates the index-th item with a DOM click. It reports false
	// when the index is out of range.
	ClickItem(ctx context.Context, itemSelector string, index int) (bool, error)
	// Text returns the text of the first element matching selector.
	Text(ctx context.Context, selector string) (string, bool, error)
}

// Browser is one running browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts a Browser. Each profile pass launches its own.
type Launcher func(ctx context.Context) (Browser, error)

// evaluator is what a browser engine must provide for jsPage: evaluating a JS
// function with JSON-encodable args plus native history navigation.
type evaluator interface {
	eval(ctx context.Context, fn string, out any, args ...any) error
	navigate(ctx context.Context, url string) error
	back(ctx context.Context) error
}

// jsPage implements Page on top of any evaluator.
type jsPage struct {
	ev evaluator
}

type textResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (p *jsPage) Navigate(ctx context.Context, url string) error {
	if err := p.ev.navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *jsPage) Back(ctx context.Context) error {
	if err := p.ev.back(ctx); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

func (p *jsPage) URL(ctx context.Context) (string, error) {
	var u string
	if err := p.ev.eval(ctx, jsLocation, &u); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return u, nil
}

func (p *jsPage) ScrollHeight(ctx context.Context) (int, error) {
	var h int
	if err := p.ev.eval(ctx, jsScrollHeight, &h); err != nil {
		return 0, fmt.Errorf("read scroll height: %w", err)
	}
	return h, nil
}

func (p *jsPage) ScrollToBottom(ctx context.Context) error {
	return p.scroll(ctx, jsScrollToBottom)
}

func (p *jsPage) ScrollToTop(ctx context.Context) error {
	return p.scroll(ctx, jsScrollToTop)
}

func (p *jsPage) ScrollBy(ctx context.Context, dy int) error {
	return p.scroll(ctx, jsScrollBy, dy)
}

func (p *jsPage) scroll(ctx context.Context, fn string, args ...any) error {
	var ok bool
	if err := p.ev.eval(ctx, fn, &ok, args...); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

func (p *jsPage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	if err := p.ev.eval(ctx, jsCount, &n, selector); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

func (p *jsPage) ItemText(ctx context.Context, itemSelector string, index int, selector string) (string, bool, error) {
	var r textResult
	if err := p.ev.eval(ctx, jsItemText, &r, itemSelector, index, selector); err != nil {
		return "", false, fmt.Errorf("item %d text %q: %w", index, selector, err)
	}
	return r.Text, r.Found, nil
}

func (p *jsPage) ClickItem(ctx context.Context, itemSelector string, index int) (bool, error) {
	var ok bool
	if err := p.ev.eval(ctx, jsClickItem, &ok, itemSelector, index); err != nil {
		return false, fmt.Errorf("click item %d: %w", index, err)
	}
	return ok, nil
}

func (p *jsPage) Text(ctx context.Context, selector string) (string, bool, error) {
	var r textResult
	if err := p.ev.eval(ctx, jsText, &r, selector); err != nil {
		return "", false, fmt.Errorf("text %q: %w", selector, err)
	}
	return r.Text, r.Found, nil
}
