//go:build unittest

package tiktok

import (
	"context"
	"fmt"
)

func launchRod(ctx context.Context, opts BrowserOptions) (Browser, error) {
	return nil, fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func launchChromedp(ctx context.Context, opts BrowserOptions) (Browser, error) {
	return nil, fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}
