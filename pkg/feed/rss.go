package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
	"github.com/kriptoskop/kriptoskop/pkg/image"
)

// RSSFetcher retrieves and normalizes one RSS/Atom feed
type RSSFetcher struct {
	source Source
	client *http.Client
}

// Fetch downloads and parses the feed, returning normalized items in
// document order. A malformed entry is skipped, the rest of the batch
// continues.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	body, err := get(ctx, f.client, f.source.FeedURL, addFeedHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.source.FeedURL, err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.source.FeedURL, err)
	}

	now := time.Now().UTC()
	items := make([]domain.NewsItem, 0, len(parsed.Items))
	for i, entry := range parsed.Items {
		link := strings.TrimSpace(entry.Link)
		title := strings.TrimSpace(entry.Title)
		if title == "" || link == "" {
			continue
		}

		item := domain.NewsItem{
			ID:        link,
			Title:     title,
			URL:       link,
			Source:    f.source.Name,
			Score:     f.source.Weight - 0.01*float64(i),
			FetchedAt: now,
		}

		// tolerant description chain: description, then full content
		description := entry.Description
		if description == "" {
			description = entry.Content
		}
		if text := CleanText(description); text != "" {
			item.Text = text
		} else {
			item.Text = title
		}

		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			item.PublishedDate = &t
		} else if entry.UpdatedParsed != nil {
			t := entry.UpdatedParsed.UTC()
			item.PublishedDate = &t
		} else {
			// undated entries fall back to fetch time; Score keeps the
			// original feed order as tiebreak
			item.PublishedDate = &now
		}

		if img := f.entryImage(entry, link, description); img != "" {
			item.Image = img
		}

		items = append(items, item)
	}

	return items, nil
}

// entryImage walks the RSS-native image fields and falls back to the first
// <img> embedded in the description HTML
func (f *RSSFetcher) entryImage(entry *gofeed.Item, link, description string) string {
	raw := mediaExtensionURL(entry)

	if raw == "" {
		for _, enc := range entry.Enclosures {
			if enc != nil && strings.Contains(enc.Type, "image") && enc.URL != "" {
				raw = enc.URL
				break
			}
		}
	}

	if raw == "" && entry.Image != nil {
		raw = entry.Image.URL
	}

	if raw == "" && description != "" {
		raw = firstImgSrc(description)
	}

	if raw == "" {
		return ""
	}
	return image.Upgrade(image.Normalize(raw, link))
}

// mediaExtensionURL reads media:content / media:thumbnail extension blocks
func mediaExtensionURL(entry *gofeed.Item) string {
	media, ok := entry.Extensions["media"]
	if !ok {
		return ""
	}
	for _, key := range []string{"content", "thumbnail"} {
		for _, ext := range media[key] {
			if u := ext.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}

// firstImgSrc loads an HTML fragment and returns the first img src, or ""
func firstImgSrc(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}
