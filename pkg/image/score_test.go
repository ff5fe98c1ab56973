package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want float64
	}{
		{"plain content image", "https://example.com/photos/story.jpg", 100},
		{"og image bonus", "https://example.com/og-image-story.jpg", 150},
		{"twitter image bonus", "https://example.com/twitter-image.jpg", 145},
		{"featured bonus", "https://example.com/featured-story.jpg", 140},
		{"hero bonus", "https://example.com/hero-shot.jpg", 135},
		{"cdn bonus", "https://res.cloudinary.com/demo/story-image.jpg", 115},
		{"avatar penalized", "https://example.com/user-avatar.jpg", 50},
		{"compound penalties", "https://example.com/default-avatar-icon.png", 0},
		{"small dimensions penalized", "https://example.com/photo-200x100.jpg", 70},
		{"large dimensions rewarded", "https://example.com/photo-1200x800.jpg", 120},
		{"too short", "a.jpg", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.url))
		})
	}
}

func TestScore_NeverNegative(t *testing.T) {
	garbage := []string{
		"https://example.com/placeholder-avatar-icon-logo-favicon-sprite.gif",
		"not a url at all but long enough",
		"://///broken-avatar-pixel-1x1",
		"https://example.com/blank-missing-no-image-default.png",
	}
	for _, u := range garbage {
		assert.GreaterOrEqual(t, Score(u), 0.0, "score must clamp at zero for %q", u)
	}
}

func TestScore_BonusVariantsCountOnce(t *testing.T) {
	// -/_ spellings of the same signal must not stack
	assert.Equal(t, Score("https://example.com/og-image.jpg"),
		Score("https://example.com/og-image_og_image.jpg"))
}
