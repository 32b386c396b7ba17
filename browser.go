//go:build !unittest

package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// blockedResources are never needed to read counters. Stylesheets stay
// allowed because scroll height depends on layout.
var blockedResources = []string{"*.png", "*.jpg", "*.jpeg", "*.webp", "*.gif", "*.mp4", "*.woff*", "*analytics*"}

type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	router   *rod.HijackRouter
	opts     BrowserOptions
	log      zerolog.Logger
}

// launchRod starts a Chrome instance through rod and connects to it.
func launchRod(ctx context.Context, opts BrowserOptions) (Browser, error) {
	start := time.Now()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080")
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b := &rodBrowser{
		launcher: l,
		browser:  browser,
		opts:     opts,
		log:      opts.Logger.With().Str("engine", EngineRod).Logger(),
	}
	if opts.BlockMedia {
		b.setupResourceBlocking()
	}

	b.log.Debug().Dur("took", time.Since(start)).Msg("browser launched")
	return b, nil
}

func (b *rodBrowser) setupResourceBlocking() {
	router := b.browser.HijackRequests()
	for _, pattern := range blockedResources {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
	b.router = router
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("create stealth page: %w", err)
	}
	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &jsPage{ev: &rodPage{page: page, timeout: b.opts.ActionTimeout}}, nil
}

func (b *rodBrowser) Close() error {
	if b.router != nil {
		if err := b.router.Stop(); err != nil {
			b.log.Warn().Err(err).Msg("stop request router")
		}
		b.router = nil
	}
	if b.browser == nil {
		b.launcher.Cleanup()
		return nil
	}
	browser := b.browser
	b.browser = nil
	return shutdown(browser.Close, b.launcher)
}

type rodPage struct {
	page    *rod.Page
	timeout time.Duration
}

func (r *rodPage) bound(ctx context.Context) *rod.Page {
	return r.page.Context(ctx).Timeout(r.timeout)
}

func (r *rodPage) eval(ctx context.Context, fn string, out any, args ...any) error {
	res, err := r.bound(ctx).Eval(fn, args...)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(res.Value)
	if err != nil {
		return fmt.Errorf("encode eval result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode eval result: %w", err)
	}
	return nil
}

func (r *rodPage) navigate(ctx context.Context, url string) error {
	p := r.bound(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (r *rodPage) back(ctx context.Context) error {
	return r.bound(ctx).NavigateBack()
}
