package tiktok

import (
	"strconv"
	"strings"
)

var countSuffixes = []struct {
	letter     string
	multiplier float64
}{
	{"K", 1e3},
	{"M", 1e6},
	{"B", 1e9},
}

// ParseCount converts a human-readable counter such as "142.5K" or "1.2M"
// into an integer. It never fails: anything it cannot read is 0.
func ParseCount(raw string) int64 {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == 'K', r == 'M', r == 'B':
			return r
		}
		return -1
	}, s)

	for _, suf := range countSuffixes {
		if !strings.Contains(clean, suf.letter) {
			continue
		}
		num := strings.NewReplacer("K", "", "M", "", "B", "").Replace(clean)
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0
		}
		return clampCount(f * suf.multiplier)
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return clampCount(f)
}

func clampCount(f float64) int64 {
	// Overflowing values are as unreadable as junk.
	if f <= 0 || f >= 9.2e18 {
		return 0
	}
	return int64(f)
}
