// Package feed turns external news sources into normalized NewsItem records.
// Every source is defined declaratively: a feed URL for RSS/Atom sources, a
// listing-page URL plus selector cascades for sites without a usable feed,
// or both, in which case the page scrape acts as fallback when the feed
// yields nothing. Fetchers never fail the batch: any error is logged and
// reported as an empty result.
package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

// Source declares one external news origin
type Source struct {
	Name    string  // human-readable label attached to items
	FeedURL string  // RSS/Atom feed URL, empty for scrape-only sources
	PageURL string  // listing page URL for HTML scraping, empty for feed-only
	Weight  float64 // initial relevance seed, decays by item order
}

// Origin returns the scheme://host base of the source, used for resolving
// relative links and the domain-containment validity gate
func (s Source) Origin() string {
	raw := s.PageURL
	if raw == "" {
		raw = s.FeedURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Fetcher retrieves and normalizes items for a single source. Fetch never
// returns an error: source failures are a local concern and degrade to an
// empty slice.
type Fetcher interface {
	Fetch(ctx context.Context) []domain.NewsItem
	Name() string
}

// SourceFetcher combines the RSS and HTML-scrape paths for one source:
// feed first, page scrape when the feed produced nothing.
type SourceFetcher struct {
	source  Source
	rss     *RSSFetcher
	scraper *ScrapeFetcher
}

// NewSourceFetcher builds a combined fetcher for the source. timeout bounds
// every outbound request of this source.
func NewSourceFetcher(src Source, timeout time.Duration) *SourceFetcher {
	if src.Weight == 0 {
		src.Weight = 0.9
	}
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	sf := &SourceFetcher{source: src}
	if src.FeedURL != "" {
		sf.rss = &RSSFetcher{source: src, client: client}
	}
	if src.PageURL != "" {
		sf.scraper = &ScrapeFetcher{source: src, client: client}
	}
	return sf
}

// Name returns the source label
func (f *SourceFetcher) Name() string { return f.source.Name }

// Fetch retrieves items for the source, trying the feed before the page
// scrape. Failures are logged, never propagated.
func (f *SourceFetcher) Fetch(ctx context.Context) []domain.NewsItem {
	if f.rss != nil {
		items, err := f.rss.Fetch(ctx)
		if err != nil {
			log.Printf("[WARN] feed fetch failed for %s: %v", f.source.Name, err)
		}
		if len(items) > 0 {
			return items
		}
	}

	if f.scraper != nil {
		items, err := f.scraper.Fetch(ctx)
		if err != nil {
			log.Printf("[WARN] page scrape failed for %s: %v", f.source.Name, err)
			return nil
		}
		return items
	}

	return nil
}

// get performs an HTTP GET with a hard status check, shared by both paths
func get(ctx context.Context, client *http.Client, reqURL string, setHeaders func(*http.Request)) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// resolveURL makes a possibly-relative link absolute against the source
// origin
func resolveURL(raw, origin string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return origin + raw
}
