// Package content fetches article pages and extracts their readable text
// and representative image. Used by the standalone scrape endpoint and by
// the aggregator's image backfill pass.
package content

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html/charset"

	"github.com/kriptoskop/kriptoskop/pkg/image"
)

// userAgents rotates browser identities for article-page requests
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.2; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Extractor retrieves article pages with a hard per-request budget
type Extractor struct {
	client        *http.Client
	timeout       time.Duration
	minTextLength int
}

// NewExtractor creates a content extractor. timeout bounds each page fetch
// (slow third-party sites get cut off, not waited out); minTextLength is
// the threshold below which extraction counts as failed.
func NewExtractor(timeout time.Duration, minTextLength int) *Extractor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if minTextLength == 0 {
		minTextLength = 100
	}
	return &Extractor{
		client:        &http.Client{Timeout: timeout},
		timeout:       timeout,
		minTextLength: minTextLength,
	}
}

// Extract retrieves the page at urlStr and returns its readable text.
// Fails when the page cannot be fetched or yields less than the configured
// minimum of content.
func (e *Extractor) Extract(ctx context.Context, urlStr string) (string, error) {
	parsedURL, resp, err := e.fetch(ctx, urlStr)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// decode charset before extraction, not every site serves UTF-8
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body from %s: %w", urlStr, err)
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	}

	result, err := trafilatura.Extract(body, opts)
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", urlStr, err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return "", fmt.Errorf("no content extracted from %s", urlStr)
	}

	content := strings.TrimSpace(result.ContentText)
	if len(content) < e.minTextLength {
		return "", fmt.Errorf("insufficient content extracted from %s: %d chars", urlStr, len(content))
	}
	return content, nil
}

// PageImage retrieves the page at urlStr and runs image extraction over it.
// Returns "" on any failure; a missing image is an expected terminal state,
// not an error.
func (e *Extractor) PageImage(ctx context.Context, urlStr string) string {
	_, resp, err := e.fetch(ctx, urlStr)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return ""
	}
	return image.FromDocument(doc, urlStr)
}

// fetch performs a browser-like GET with the extractor's timeout applied on
// top of the caller's context
func (e *Extractor) fetch(ctx context.Context, urlStr string) (*url.URL, *http.Response, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, nil, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, nil, fmt.Errorf("invalid URL: %s", urlStr)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))]) //nolint:gosec // non-cryptographic randomness is fine for header variation
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,tr;q=0.8")
	req.Header.Set("Referer", parsedURL.Scheme+"://"+parsedURL.Host)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := e.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("fetch URL %s: %w", urlStr, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("unexpected status code %d for URL %s", resp.StatusCode, urlStr)
	}

	// cancel runs when the body is closed via the response's lifetime; tie
	// it to the body so the deadline covers the read as well
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return parsedURL, resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}
