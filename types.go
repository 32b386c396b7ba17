package tiktok

import "time"

// Author is what a profile declares about itself. VideoCount is what the
// feed cross-check compares against.
type Author struct {
	ID             string
	Username       string
	Nickname       string
	FollowerCount  int
	FollowingCount int
	LikeCount      int64
	VideoCount     int
	Verified       bool
	Bio            string
	AvatarURL      string
}

// VideoRecord is one row of output: the metrics read for a single video.
// Counts are always set (0 when nothing was found); the *Raw fields keep the
// text exactly as it was read from the page, "0" when nothing was.
type VideoRecord struct {
	ProfileName string
	ProfileURL  string
	VideoURL    string

	Views     int64
	Likes     int64
	Bookmarks int64
	Comments  int64

	ViewsRaw     string
	LikesRaw     string
	BookmarksRaw string
	CommentsRaw  string

	ScrapedAt time.Time
}

// ProfileSummary totals the records of one profile. It is always derived
// from records and never stored on its own.
type ProfileSummary struct {
	ProfileName string
	Videos      int
	Views       int64
	Likes       int64
	Bookmarks   int64
	Comments    int64
}

// RunSummary reports the outcome of a batch run.
type RunSummary struct {
	Queued    int
	Succeeded int
	Failed    int
	// Files lists the CSV files written, in order.
	Files    []string
	Profiles []ProfileSummary
	Total    ProfileSummary
	// Failures maps a profile URL to why it produced nothing.
	Failures map[string]error
}
