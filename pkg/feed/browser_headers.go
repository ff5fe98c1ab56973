package feed

import (
	"math/rand"
	"net/http"
)

// userAgents is a small fixed pool rotated per request to avoid trivial
// anti-scraping blocks
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.2; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// acceptLanguages contains common browser Accept-Language values
var acceptLanguages = []string{
	"en-US,en;q=0.9,tr;q=0.8",
	"en-US,en;q=0.9",
	"tr-TR,tr;q=0.9,en;q=0.8",
	"en-GB,en;q=0.9",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))] //nolint:gosec // non-cryptographic randomness is fine for header variation
}

// addFeedHeaders adds browser-like headers for feed fetching.
// Feeds are often fetched by browsers too, so we want to look legitimate.
func addFeedHeaders(req *http.Request) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))]) //nolint:gosec // non-cryptographic randomness is fine
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}

// addPageHeaders adds browser-like headers for HTML page fetching, with
// Referer set to the target origin
func addPageHeaders(req *http.Request, origin string) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))]) //nolint:gosec // non-cryptographic randomness is fine
	if origin != "" {
		req.Header.Set("Referer", origin)
	}
	req.Header.Set("Cache-Control", "no-cache")
}
