package tiktok

import (
	"fmt"
	"regexp"
	"strings"
)

var profileURLPattern = regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/@([\w.-]+)/?(?:[?#].*)?$`)

// itemReferencePatterns match a single video, or one of the short links that
// redirect to one.
var itemReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/@[\w.-]+/video/\d+`),
	regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/t/\w+`),
	regexp.MustCompile(`^https?://vm\.tiktok\.com/\w+`),
}

// ProfileTarget is one queued profile.
type ProfileTarget struct {
	URL  string
	Name string
}

// ParseProfileTarget validates raw as a profile URL. position is the 1-based
// queue position, used to name profiles whose handle cannot be read.
// Video and short links are rejected with ErrNotProfileURL.
func ParseProfileTarget(raw string, position int) (ProfileTarget, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ProfileTarget{}, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	for _, p := range itemReferencePatterns {
		if p.MatchString(u) {
			return ProfileTarget{}, fmt.Errorf("%w: %s", ErrNotProfileURL, u)
		}
	}
	if !profileURLPattern.MatchString(u) {
		return ProfileTarget{}, fmt.Errorf("%w: %s", ErrInvalidURL, u)
	}
	return ProfileTarget{URL: u, Name: ProfileName(u, position)}, nil
}

// ProfileName returns the @handle of a profile URL, or profile_<position>
// when there is none.
func ProfileName(rawURL string, position int) string {
	_, rest, ok := strings.Cut(rawURL, "/@")
	if ok {
		rest, _, _ = strings.Cut(rest, "?")
		rest, _, _ = strings.Cut(rest, "#")
		rest, _, _ = strings.Cut(rest, "/")
		if rest != "" {
			return rest
		}
	}
	return fmt.Sprintf("profile_%d", position)
}
