package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:    endpoint + "/v1",
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   500,
		Retries:     2,
		RetryDelay:  time.Millisecond,
	}
}

func respondWith(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestTranslator_SummarizeAndTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		respondWith(t, w, "```json\n{\"summary\": \"Bitcoin 100 bin dolara ulaştı. Piyasa olumlu tepki verdi.\", \"sentiment\": \"positive\"}\n```")
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	result, err := tr.SummarizeAndTranslate(context.Background(), "Bitcoin Hits 100k", "Bitcoin surged past 100,000 dollars today.")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin 100 bin dolara ulaştı. Piyasa olumlu tepki verdi.", result.Summary)
	assert.Equal(t, domain.SentimentPositive, result.Sentiment)
}

func TestTranslator_SummarizeAndTranslate_InvalidSentiment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWith(t, w, `{"summary": "Ethereum ağı güncellendi ve işlem ücretleri düştü.", "sentiment": "bullish"}`)
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	result, err := tr.SummarizeAndTranslate(context.Background(), "Ethereum Upgrade", "The network upgraded.")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment, "unknown sentiment must degrade to neutral")
}

func TestTranslator_SummarizeAndTranslate_RawTextFallback(t *testing.T) {
	// model ignored the JSON contract but produced usable text
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWith(t, w, "Solana ağında kesinti yaşandı, işlemler saatlerce durdu.")
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	result, err := tr.SummarizeAndTranslate(context.Background(), "Solana Outage", "The Solana network halted.")
	require.NoError(t, err)
	assert.Equal(t, "Solana ağında kesinti yaşandı, işlemler saatlerce durdu.", result.Summary)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
}

func TestTranslator_SummarizeAndTranslate_TitleFallback(t *testing.T) {
	// summarize calls fail, the bare title translation succeeds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		if strings.Contains(req.Messages[0].Content, "analiz uzman") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		respondWith(t, w, "Bitcoin 100 bin dolara ulaştı")
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	result, err := tr.SummarizeAndTranslate(context.Background(), "Bitcoin Hits 100k", "Bitcoin surged today.")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin 100 bin dolara ulaştı", result.Summary)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
}

func TestTranslator_SummarizeAndTranslate_TotalFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	_, err := tr.SummarizeAndTranslate(context.Background(), "Bitcoin Hits 100k", "Bitcoin surged today.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUntranslatable)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3), "summarize retries plus fallback attempts expected")
}

func TestTranslator_SummarizeAndTranslate_FallbackEchoesTitle(t *testing.T) {
	// fallback returning the input untranslated counts as failure
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if strings.Contains(req.Messages[0].Content, "analiz uzman") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		respondWith(t, w, req.Messages[1].Content)
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	_, err := tr.SummarizeAndTranslate(context.Background(), "Bitcoin Price Analysis Today", "body text")
	assert.ErrorIs(t, err, ErrUntranslatable)
}

func TestTranslator_SummarizeAndTranslate_TruncatesLongContent(t *testing.T) {
	var gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotContent = req.Messages[1].Content

		respondWith(t, w, `{"summary": "Uzun haber özetlendi ve çevrildi.", "sentiment": "neutral"}`)
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	longText := strings.Repeat("Bitcoin news content. ", 200)
	_, err := tr.SummarizeAndTranslate(context.Background(), "Long Article", longText)
	require.NoError(t, err)
	assert.Len(t, gotContent, maxContentLen+3)
	assert.True(t, strings.HasSuffix(gotContent, "..."))
}

func TestTranslator_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "çevirmensin")

		respondWith(t, w, "  Piyasa bugün yükselişte  ")
	}))
	defer server.Close()

	tr := New(testConfig(server.URL))

	got, err := tr.Translate(context.Background(), "Markets are up today")
	require.NoError(t, err)
	assert.Equal(t, "Piyasa bugün yükselişte", got)
}

func TestTranslator_Translate_EmptyInput(t *testing.T) {
	tr := NewWithClient(nil, Config{})
	got, err := tr.Translate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", got)
}
