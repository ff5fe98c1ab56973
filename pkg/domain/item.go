package domain

import "time"

// NewsItem represents a normalized news record from any source.
// ID is derived from the canonical article URL and stays stable across
// fetch cycles, so dedup and cache keys keep working between runs.
type NewsItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Text          string     `json:"text,omitempty"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	Source        string     `json:"source,omitempty"`
	Score         float64    `json:"score,omitempty"`
	Image         string     `json:"image,omitempty"`
	Sentiment     Sentiment  `json:"sentiment,omitempty"`
	FetchedAt     time.Time  `json:"fetchedAt,omitempty"`
}

// Sentiment is a coarse market-tone classification assigned by the LLM.
// The zero value means the item has not been scored yet; aggregates must
// exclude unscored items rather than treating them as neutral.
type Sentiment string

// sentiment values
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is one of the three known sentiment values.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Translation is the output of the summarize-and-translate adapter.
type Translation struct {
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
}
