package tiktok

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int64
	}{
		{"142.5K", 142500},
		{"1.2M", 1200000},
		{"3B", 3000000000},
		{"999", 999},
		{"1,234", 1234},
		{"  12k ", 12000},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"1.2.3", 0},
		{"-5", 5},
		{"K", 0},
		{"99999999999B", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseCount(tt.raw))
		})
	}
}

func TestParseCount_NeverNegative(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"-1", "-1.5K", "--", "-", "−3M", "1e9"} {
		assert.GreaterOrEqual(t, ParseCount(raw), int64(0), "raw %q", raw)
	}
}
