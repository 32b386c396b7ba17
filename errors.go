package tiktok

import "errors"

var (
	ErrRateLimited       = errors.New("tiktok: rate limited")
	ErrNotFound          = errors.New("tiktok: not found")
	ErrInvalidResponse   = errors.New("tiktok: invalid response")
	ErrBrowserNotReady   = errors.New("tiktok: browser not initialized")
	ErrUnsupportedEngine = errors.New("tiktok: unsupported browser engine")
	ErrInvalidURL        = errors.New("tiktok: invalid profile url")
	ErrNotProfileURL     = errors.New("tiktok: url points to a single video, not a profile")
	ErrItemNotFound      = errors.New("tiktok: feed item not found")
	ErrRecoveryFailed    = errors.New("tiktok: could not return to profile feed")
	ErrNoItems           = errors.New("tiktok: no data extracted")
	ErrNoRecords         = errors.New("tiktok: no records to write")
	ErrProfileMismatch   = errors.New("tiktok: page describes a different profile")
)
