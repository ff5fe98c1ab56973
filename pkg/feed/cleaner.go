package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag and keeps only text content
var stripPolicy = bluemonday.StrictPolicy()

// junk removal patterns for feed descriptions: tracking URLs, share-source
// markers and boilerplate calls to action
var (
	urlRe      = regexp.MustCompile(`https?://\S+|www\.\S+|t\.co/\S+`)
	sourceRe   = regexp.MustCompile(`(?i)source=[^\s&]+`)
	utmRe      = regexp.MustCompile(`(?i)utm_[^\s&]+=[^\s&]+`)
	refRe      = regexp.MustCompile(`(?i)ref=[^\s&]+`)
	queryRe    = regexp.MustCompile(`(?i)[?&][a-z_]+=[^\s&]+`)
	artifactRe = regexp.MustCompile(`(?i)RSVP:|Read more:|Click here:|\[…\]|\[\.\.\.\]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// trailerSeparators mark the start of appended boilerplate; anything after
// the first occurrence is dropped
var trailerSeparators = []string{"|", "The post", "Read more at", "Continue reading"}

// CleanText normalizes a raw feed description into display-ready text:
// strips markup and shortcode leftovers, cuts trailing boilerplate and
// tracking fragments, and collapses whitespace. Returns "" when fewer than
// 10 characters survive, so the caller can substitute the title.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	text := html.UnescapeString(stripPolicy.Sanitize(raw))

	for _, sep := range trailerSeparators {
		if idx := strings.Index(text, sep); idx >= 0 {
			text = text[:idx]
		}
	}

	text = urlRe.ReplaceAllString(text, "")
	text = sourceRe.ReplaceAllString(text, "")
	text = utmRe.ReplaceAllString(text, "")
	text = refRe.ReplaceAllString(text, "")
	text = queryRe.ReplaceAllString(text, "")
	text = artifactRe.ReplaceAllString(text, "")

	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	if len(text) < 10 {
		return ""
	}
	return text
}
