package image

import (
	"regexp"
	"strconv"
	"strings"
)

// weightRule assigns a score delta when the pattern occurs in the URL
type weightRule struct {
	pattern string
	weight  float64
}

// penaltyRules mark obvious non-content images. Penalties are additive:
// a URL hitting several patterns compounds them.
var penaltyRules = []weightRule{
	{"placeholder", -50},
	{"avatar", -50},
	{"icon", -50},
	{"logo", -50},
	{"favicon", -50},
	{"sprite", -50},
	{"emoji", -50},
	{"pixel", -50},
	{"gravatar", -50},
	{"profile", -50},
	{"1x1", -50},
	{"16x16", -50},
	{"32x32", -50},
	{"64x64", -50},
	{"100x100", -50},
	{"default", -50},
	{"blank", -50},
	{"no-image", -50},
	{"missing", -50},
}

// bonusRules reward naming conventions that usually mark the lead image
var bonusRules = []weightRule{
	{"og-image", 50},
	{"og_image", 50},
	{"twitter-image", 45},
	{"twitter_image", 45},
	{"featured", 40},
	{"hero", 35},
	{"cover", 30},
	{"banner", 25},
}

// cdnRules reward hosts that typically serve real content images
var cdnRules = []weightRule{
	{"cloudinary", 15},
	{"imgix", 15},
	{"cloudfront", 15},
	{"amazonaws", 15},
}

var dimensionsRe = regexp.MustCompile(`(\d+)x(\d+)`)

// Score rates how likely a URL points at a real content image. Starts at 100
// and walks the rule tables; embedded WxH dimension hints penalize small
// images and reward large ones. Never negative and never panics, whatever
// garbage comes in.
func Score(u string) float64 {
	if len(u) < 10 {
		return 0
	}

	score := 100.0
	lower := strings.ToLower(u)

	for _, r := range penaltyRules {
		if strings.Contains(lower, r.pattern) {
			score += r.weight
		}
	}

	// bonus groups with "-"/"_" variants count once
	seen := map[float64]bool{}
	for _, r := range bonusRules {
		if strings.Contains(lower, r.pattern) && !seen[r.weight] {
			score += r.weight
			seen[r.weight] = true
		}
	}

	if m := dimensionsRe.FindStringSubmatch(lower); m != nil {
		width, _ := strconv.Atoi(m[1])
		height, _ := strconv.Atoi(m[2])
		if width < 400 || height < 300 {
			score -= 30
		}
		if width > 800 && height > 600 {
			score += 20
		}
	}

	for _, r := range cdnRules {
		if strings.Contains(lower, r.pattern) {
			score += r.weight
			break
		}
	}

	if score < 0 {
		return 0
	}
	return score
}
