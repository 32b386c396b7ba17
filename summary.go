package tiktok

import "github.com/rs/zerolog"

// Summarize totals records under the given profile name.
func Summarize(name string, records []VideoRecord) ProfileSummary {
	s := ProfileSummary{ProfileName: name}
	for _, r := range records {
		s.add(r)
	}
	return s
}

// SummarizeByProfile groups records by profile name, keeping the order in
// which each profile first appears.
func SummarizeByProfile(records []VideoRecord) []ProfileSummary {
	var out []ProfileSummary
	pos := map[string]int{}
	for _, r := range records {
		name := r.ProfileName
		if name == "" {
			name = "unknown"
		}
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, ProfileSummary{ProfileName: name})
		}
		out[i].add(r)
	}
	return out
}

func (s *ProfileSummary) add(r VideoRecord) {
	s.Videos++
	s.Views += r.Views
	s.Likes += r.Likes
	s.Bookmarks += r.Bookmarks
	s.Comments += r.Comments
}

func logSummary(log zerolog.Logger, s ProfileSummary, msg string) {
	log.Info().
		Str("profile", s.ProfileName).
		Int("videos", s.Videos).
		Int64("views", s.Views).
		Int64("likes", s.Likes).
		Int64("bookmarks", s.Bookmarks).
		Int64("comments", s.Comments).
		Msg(msg)
}
