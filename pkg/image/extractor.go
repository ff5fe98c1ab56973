// Package image finds the representative image of an article page.
// Extraction runs a fixed ladder of strategies over the parsed document,
// every strategy appends candidates, and the best-scoring survivor wins.
// Scoring and thumbnail upgrading are hard-coded heuristic tables, explicit
// and ordered so they stay testable on their own.
package image

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// candidate is an ephemeral scored image URL, consumed by the max-score pick
type candidate struct {
	url   string
	score float64
}

// strategy score bonuses, most trusted signal first
const (
	bonusMeta        = 100
	bonusJSONLDImage = 80
	bonusJSONLDThumb = 60
	bonusSrcsetLast  = 75
	bonusPriority    = 70
	bonusArticleImg  = 50
	bonusLargeAttr   = 20
	bonusAnyImg      = 30
)

// metaSelectors carry the page-level lead image declarations
var metaSelectors = []struct{ selector, attr string }{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`meta[itemprop="image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

// prioritySelectors target featured/hero/cover imagery, checked in order
var prioritySelectors = []string{
	`article img[class*="featured"]`,
	`article img[class*="hero"]`,
	`article img[class*="cover"]`,
	`.featured-image img`,
	`.hero-image img`,
	`.post-thumbnail img`,
	`.wp-post-image`,
	`[class*="featured-image"] img`,
	`[class*="hero-image"] img`,
	`picture source`,
	`figure.wp-block-image img`,
}

// articleImgSelector matches images inside article/content containers
const articleImgSelector = `article img, .article-body img, .entry-content img, .post-content img, main img`

// FromDocument extracts the best candidate image URL from a parsed page.
// Pure over its input, no network access. Returns "" when nothing survives
// the filters. All strategies always run; none short-circuits the rest.
func FromDocument(doc *goquery.Document, baseURL string) string {
	return FromSelection(doc, doc.Selection, baseURL)
}

// FromSelection is FromDocument restricted to a sub-tree: the image-bearing
// strategies only look inside scope, while page-level signals (meta tags,
// JSON-LD) still come from the whole document. Used when scraping repeated
// article blocks out of a listing page.
func FromSelection(doc *goquery.Document, scope *goquery.Selection, baseURL string) string {
	var candidates []candidate
	add := func(raw string, bonus float64) {
		normalized := Normalize(raw, baseURL)
		if normalized == "" {
			return
		}
		upgraded := Upgrade(normalized)
		candidates = append(candidates, candidate{url: upgraded, score: Score(upgraded) + bonus})
	}

	// strategy 1: meta tags, the most trusted signal
	for _, m := range metaSelectors {
		if v, ok := doc.Find(m.selector).Attr(m.attr); ok && v != "" {
			add(v, bonusMeta)
		}
	}

	// strategy 2: JSON-LD structured data, parse failures ignored
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		collectJSONLD(s.Text(), add)
	})

	// strategy 3: high-priority selectors
	for _, sel := range prioritySelectors {
		scope.Find(sel).Each(func(_ int, el *goquery.Selection) {
			if src := imgSource(el); src != "" {
				add(src, bonusPriority)
			}
			// srcset lists sources smallest to largest, take the last
			if srcset, ok := el.Attr("srcset"); ok {
				if last := lastSrcsetEntry(srcset); last != "" {
					add(last, bonusSrcsetLast)
				}
			}
		})
	}

	// strategy 4: generic article images, size-gated
	scope.Find(articleImgSelector).Each(func(_ int, el *goquery.Selection) {
		src := imgSource(el)
		if src == "" {
			return
		}
		width := intAttr(el, "width")
		height := intAttr(el, "height")
		if width > 600 || height > 400 || !hasAttr(el, "width") {
			bonus := float64(bonusArticleImg)
			if width > 800 {
				bonus += bonusLargeAttr
			}
			if height > 600 {
				bonus += bonusLargeAttr
			}
			add(src, bonus)
		}
	})

	// strategy 5: any large image, last resort
	scope.Find("img").Each(func(_ int, el *goquery.Selection) {
		src, ok := el.Attr("src")
		if !ok || src == "" {
			src, _ = el.Attr("data-src")
		}
		if src == "" {
			return
		}
		width := intAttr(el, "width")
		height := intAttr(el, "height")
		if width > 400 || height > 300 || !hasAttr(el, "width") {
			add(src, bonusAnyImg)
		}
	})

	return pickBest(candidates)
}

// collectJSONLD pulls image and thumbnailUrl values out of a JSON-LD block,
// accepting strings, arrays and {url} objects
func collectJSONLD(raw string, add func(string, float64)) {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return
	}

	items, ok := data.([]interface{})
	if !ok {
		items = []interface{}{data}
	}

	for _, it := range items {
		obj, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		for _, u := range stringValues(obj["image"]) {
			add(u, bonusJSONLDImage)
		}
		for _, u := range stringValues(obj["thumbnailUrl"]) {
			add(u, bonusJSONLDThumb)
		}
	}
}

// stringValues flattens a JSON value that may be a string, a list of
// strings, or an object with a url field
func stringValues(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		var out []string
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]interface{}:
		if s, ok := val["url"].(string); ok {
			return []string{s}
		}
	}
	return nil
}

// imgSource reads the effective source of an img/source element, walking
// the common lazy-loading attribute variants
func imgSource(el *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := el.Attr(attr); ok && v != "" {
			return v
		}
	}
	if srcset, ok := el.Attr("srcset"); ok {
		parts := strings.Split(srcset, ",")
		if len(parts) > 0 {
			return strings.Fields(strings.TrimSpace(parts[0]))[0]
		}
	}
	return ""
}

// lastSrcsetEntry returns the URL of the final (largest) srcset source
func lastSrcsetEntry(srcset string) string {
	parts := strings.Split(srcset, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		fields := strings.Fields(strings.TrimSpace(parts[i]))
		if len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func intAttr(el *goquery.Selection, name string) int {
	v, ok := el.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func hasAttr(el *goquery.Selection, name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// Normalize resolves a discovered image reference to an absolute https URL.
// Protocol-relative references get https, relative paths resolve against the
// base origin. Returns "" when the result is not a usable URL.
func Normalize(raw, baseURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ""
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return origin.ResolveReference(ref).String()
}

// pickBest filters invalid candidates and returns the highest scorer; ties
// break on insertion order, so earlier strategies win
func pickBest(candidates []candidate) string {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		if c.score <= 0 {
			continue
		}
		if strings.HasSuffix(c.url, ".svg") || strings.Contains(c.url, "data:image") {
			continue
		}
		parsed, err := url.Parse(c.url)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			continue
		}
		if c.score > bestScore {
			best = c.url
			bestScore = c.score
		}
	}
	return best
}
