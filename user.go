package tiktok

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxProfilePage bounds how much of a profile page is read. Real pages are
// a few hundred KB.
const maxProfilePage = 8 << 20

// LookupProfile fetches what a profile declares about itself from its
// server-rendered page. This is plain HTTP, no browser or login. A leading
// "@" is ignored and the page must describe the same handle.
func (s *Scraper) LookupProfile(ctx context.Context, username string) (Author, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(username), "@")
	if handle == "" {
		return Author{}, fmt.Errorf("lookup profile: username is required")
	}
	start := time.Now()

	if err := s.waitForProfile(ctx); err != nil {
		return Author{}, fmt.Errorf("lookup @%s: %w", handle, err)
	}
	waited := time.Since(start)

	resp, err := s.doRequest(ctx, http.MethodGet, s.baseURL+"/@"+handle, nil)
	if err != nil {
		return Author{}, fmt.Errorf("lookup @%s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Author{}, fmt.Errorf("lookup @%s: %w: status %d", handle, ErrInvalidResponse, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfilePage))
	if err != nil {
		return Author{}, fmt.Errorf("lookup @%s: read page: %w", handle, err)
	}

	author, err := profileFromPage(body, handle)
	if err != nil {
		return Author{}, fmt.Errorf("lookup @%s: %w", handle, err)
	}

	s.log.Debug().
		Str("profile", author.Username).
		Int("videos", author.VideoCount).
		Int("followers", author.FollowerCount).
		Int("body_bytes", len(body)).
		Dur("waited", waited).
		Dur("took", time.Since(start)).
		Msg("profile lookup")
	return author, nil
}
