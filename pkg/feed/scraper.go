package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
	"github.com/kriptoskop/kriptoskop/pkg/image"
)

// articleBlockCascade locates repeating article blocks on a listing page;
// groups are tried in order and the first one yielding valid items wins
var articleBlockCascade = []string{
	"article",
	".post, .news-item",
	`[class*="article"], [class*="post"]`,
	`a[href*="/news/"], a[href*="/article/"]`,
}

// titleCascade finds the headline inside an article block
var titleCascade = []string{
	"h1, h2, h3, h4",
	`.title, [class*="title"], [class*="headline"], [class*="heading"]`,
}

// textCascade finds the teaser/description inside an article block
var textCascade = []string{
	`p, .description, [class*="description"], [class*="summary"], [class*="excerpt"]`,
	`.content, [class*="content"]`,
}

// dateSelector finds the publish timestamp element inside a block
const dateSelector = `time, .date, [class*="date"], [class*="time"], [class*="published"]`

// minTitleLen rejects navigation links and fragments picked up by the
// generic cascades
const minTitleLen = 10

// ScrapeFetcher extracts news items from a listing page for sources without
// a usable feed
type ScrapeFetcher struct {
	source Source
	client *http.Client
}

// Fetch downloads the listing page and walks the selector cascade for
// repeating article blocks. Items failing the validity gate (title length,
// URL domain containment) are discarded.
func (f *ScrapeFetcher) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	origin := f.source.Origin()
	body, err := get(ctx, f.client, f.source.PageURL, func(req *http.Request) {
		addPageHeaders(req, origin)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", f.source.PageURL, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", f.source.PageURL, err)
	}

	host := ""
	if u, errParse := url.Parse(origin); errParse == nil {
		host = strings.TrimPrefix(u.Host, "www.")
	}

	now := time.Now().UTC()
	for _, selector := range articleBlockCascade {
		items := f.collectBlocks(doc, selector, origin, host, now)
		if len(items) > 0 {
			return items, nil
		}
	}
	return nil, nil
}

// collectBlocks extracts items from every block matching the selector
func (f *ScrapeFetcher) collectBlocks(doc *goquery.Document, selector, origin, host string, now time.Time) []domain.NewsItem {
	var items []domain.NewsItem
	seen := map[string]bool{}

	doc.Find(selector).Each(func(idx int, block *goquery.Selection) {
		title := blockTitle(block)
		link := blockURL(block, origin)
		if len(title) <= minTitleLen || link == "" {
			return
		}
		if host != "" && !strings.Contains(link, host) {
			return
		}
		if seen[link] {
			return
		}
		seen[link] = true

		item := domain.NewsItem{
			ID:        link,
			Title:     title,
			URL:       link,
			Source:    f.source.Name,
			Score:     f.source.Weight - 0.01*float64(idx),
			FetchedAt: now,
		}

		if text := blockText(block); text != "" {
			item.Text = text
		} else {
			item.Text = title
		}

		published := blockDate(block, now)
		item.PublishedDate = &published

		if img := image.FromSelection(doc, block, origin); img != "" {
			item.Image = img
		}

		items = append(items, item)
	})

	return items
}

// blockTitle walks the title fallback chain: headline selectors, the
// block's own title attribute, then the first link's title or text
func blockTitle(block *goquery.Selection) string {
	for _, sel := range titleCascade {
		if t := strings.TrimSpace(block.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if t, ok := block.Attr("title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	first := block.Find("a").First()
	if t, ok := first.Attr("title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(first.Text())
}

// blockURL reads the article link from the block itself or its first anchor
func blockURL(block *goquery.Selection, origin string) string {
	href, ok := block.Attr("href")
	if !ok || href == "" {
		href, _ = block.Find("a").First().Attr("href")
	}
	if href == "" {
		return ""
	}
	return resolveURL(href, origin)
}

// blockText finds teaser text via the cascade
func blockText(block *goquery.Selection) string {
	for _, sel := range textCascade {
		if t := strings.TrimSpace(block.Find(sel).First().Text()); t != "" {
			return spaceRe.ReplaceAllString(t, " ")
		}
	}
	return ""
}

// blockDate reads the publish date from a datetime attribute or parses the
// element text best-effort, defaulting to now when unparseable
func blockDate(block *goquery.Selection, now time.Time) time.Time {
	el := block.Find(dateSelector).First()
	if dt, ok := el.Attr("datetime"); ok {
		if t, err := dateparse.ParseAny(dt); err == nil {
			return t.UTC()
		}
	}
	if txt := strings.TrimSpace(el.Text()); txt != "" {
		if t, err := dateparse.ParseAny(txt); err == nil {
			return t.UTC()
		}
	}
	return now
}
