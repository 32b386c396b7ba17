package tiktok

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// BrowserOptions configures how each profile pass launches its browser.
type BrowserOptions struct {
	Engine        string
	Headless      bool
	Proxy         string
	UserAgent     string
	BlockMedia    bool
	ActionTimeout time.Duration
	Logger        zerolog.Logger
}

// DefaultBrowserOptions returns headless rod with stealth and a 30s action timeout.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Engine:        EngineRod,
		Headless:      true,
		UserAgent:     defaultUserAgent,
		BlockMedia:    true,
		ActionTimeout: 30 * time.Second,
		Logger:        zerolog.Nop(),
	}
}

// NewLauncher returns a Launcher for the configured engine.
func NewLauncher(opts BrowserOptions) (Launcher, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}
	switch opts.Engine {
	case "", EngineRod:
		return func(ctx context.Context) (Browser, error) {
			return launchRod(ctx, opts)
		}, nil
	case EngineChromedp:
		return func(ctx context.Context) (Browser, error) {
			return launchChromedp(ctx, opts)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, opts.Engine)
	}
}

// localProcess is a browser process started on this machine, together with
// its temporary user-data-dir.
type localProcess interface {
	Kill()
	Cleanup()
}

// shutdown closes the connection to a local browser. The user-data-dir is
// removed either way; a failed close also kills the process.
func shutdown(closeConn func() error, proc localProcess) error {
	if err := closeConn(); err != nil {
		proc.Kill()
		proc.Cleanup()
		return fmt.Errorf("close browser: %w", err)
	}
	proc.Cleanup()
	return nil
}
