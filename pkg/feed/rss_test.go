package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSSFetcher_Fetch(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Crypto Wire</title>
	<link>https://x.com</link>
	<item>
		<title>Bitcoin Hits 100k</title>
		<link>https://x.com/a</link>
		<description><![CDATA[<p>Bitcoin surged today | source=twitter</p>]]></description>
		<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Ethereum Upgrade Ships</title>
		<link>https://x.com/b</link>
		<description>Validators completed the upgrade without incident on mainnet</description>
		<pubDate>Tue, 02 Jan 2024 12:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "application/rss+xml")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssContent))
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Crypto Wire", FeedURL: srv.URL, Weight: 0.9}, 5*time.Second)
	items := f.Fetch(context.Background())
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "https://x.com/a", first.ID, "id is the canonical URL")
	assert.Equal(t, "Bitcoin Hits 100k", first.Title)
	assert.Equal(t, "https://x.com/a", first.URL)
	assert.Equal(t, "Bitcoin surged today", first.Text, "description cleaned of markup and share markers")
	require.NotNil(t, first.PublishedDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.PublishedDate.UTC())
	assert.Equal(t, "Crypto Wire", first.Source)
	assert.InDelta(t, 0.9, first.Score, 0.0001)
	assert.False(t, first.FetchedAt.IsZero())

	second := items[1]
	assert.InDelta(t, 0.89, second.Score, 0.0001, "score decays by feed order")
}

func TestRSSFetcher_ImageFromMediaContent(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
	<title>Pics</title>
	<item>
		<title>Exchange Announces New Token Listing</title>
		<link>https://example.com/listing</link>
		<description>A new token starts trading next week</description>
		<media:content url="https://example.com/media/listing-thumb.jpg" medium="image"/>
		<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssContent))
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Pics", FeedURL: srv.URL}, 5*time.Second)
	items := f.Fetch(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/media/listing.jpg", items[0].Image,
		"rss image runs through the thumbnail upgrader")
}

func TestRSSFetcher_ImageFromDescriptionHTML(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Desc</title>
	<item>
		<title>Market Recap For The Busy Week</title>
		<link>https://example.com/recap</link>
		<description><![CDATA[<img src="https://example.com/recap-photo.jpg"><p>Markets closed mixed this week</p>]]></description>
		<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssContent))
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Desc", FeedURL: srv.URL}, 5*time.Second)
	items := f.Fetch(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/recap-photo.jpg", items[0].Image)
}

func TestRSSFetcher_ShortDescriptionFallsBackToTitle(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Short</title>
	<item>
		<title>Headline Only Entry Without Any Body</title>
		<link>https://example.com/short</link>
		<description>ok</description>
		<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssContent))
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Short", FeedURL: srv.URL}, 5*time.Second)
	items := f.Fetch(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, "Headline Only Entry Without Any Body", items[0].Text)
}

func TestSourceFetcher_FailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Down", FeedURL: srv.URL}, 2*time.Second)
	assert.Empty(t, f.Fetch(context.Background()), "a failing source degrades to an empty result")
}

func TestSourceFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewSourceFetcher(Source{Name: "Slow", FeedURL: srv.URL}, 50*time.Millisecond)
	assert.Empty(t, f.Fetch(context.Background()), "timeout is the same failure mode as a network error")
}
