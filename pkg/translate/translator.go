// Package translate wraps the external LLM behind a strict output contract:
// fully-Turkish summaries with a three-way sentiment, graceful degradation
// to a bare title translation, and a hard refusal to return untranslated
// content. A reader must never be shown text pretending to be a translation
// when translation did not actually happen.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

// ErrUntranslatable signals that every translation path failed and the
// caller must omit the item from translated display rather than show the
// original or mixed-language content.
var ErrUntranslatable = errors.New("translation failed, item must be skipped")

// maxContentLen truncates the LLM input; longer bodies add cost without
// improving a 2-3 sentence summary
const maxContentLen = 2000

// minUsefulLen is the shortest output accepted as a real translation
const minUsefulLen = 10

const summarizeSystemPrompt = `Sen kripto haber analiz uzmanısın. Verilen haberi analiz et ve şu formatta JSON döndür:
{
  "summary": "Haberin kısa Türkçe özeti (2-3 cümle, önemli detayları koru)",
  "sentiment": "positive veya negative veya neutral"
}

KRİTİK UYARILAR - MUTLAKA UYULMASI GEREKEN KURALLAR:
- Summary TAMAMEN, SADECE ve KESİNLİKLE Türkçe olmalı
- Hiçbir İngilizce kelime, cümle veya ifade KULLANMA
- Orijinal İngilizce metni kesinlikle dahil etme
- Summary'nin sonuna İngilizce açıklama ekleme
- Kripto terimleri (Bitcoin, Ethereum, blockchain, NFT, DeFi, DAO vb.) olduğu gibi kalabilir
- Kişi isimleri ve şirket isimleri değiştirilmez

Sentiment belirleme kriterleri:
- positive: Fiyat artışları, pozitif gelişmeler, iyi haberler, büyüme, başarılar
- negative: Fiyat düşüşleri, hack'ler, dolandırıcılıklar, yasal sorunlar, kötü haberler
- neutral: Objektif bilgiler, analizler, nötr duyurular

SADECE JSON formatında döndür ve summary tamamen Türkçe olsun.`

const translateSystemPrompt = `Sen profesyonel bir çevirmensin. Verilen metni Türkçeye çevir. ` +
	`SADECE Türkçe çeviriyi döndür, başka hiçbir şey ekleme. Orijinal İngilizce metni dahil etme. ` +
	`Kripto terimleri için yaygın Türkçe karşılıklarını kullan (Bitcoin, Ethereum, blockchain gibi terimler olduğu gibi kalabilir).`

// llmClient is the opaque contract with the external LLM; the adapter
// depends on nothing vendor-specific beyond this call shape
type llmClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds LLM connection and generation settings
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Retries     int           // attempts for the summarize call
	RetryDelay  time.Duration // initial backoff delay, doubles per attempt
}

// Translator adapts the LLM to the summarize-and-translate contract
type Translator struct {
	client llmClient
	cfg    Config
}

// New creates a Translator backed by an OpenAI-compatible endpoint
func New(cfg Config) *Translator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	return NewWithClient(openai.NewClientWithConfig(clientConfig), cfg)
}

// NewWithClient creates a Translator with an injected LLM client, used by
// tests and by callers wrapping the client
func NewWithClient(client llmClient, cfg Config) *Translator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	return &Translator{client: client, cfg: cfg}
}

// SummarizeAndTranslate produces a Turkish summary with sentiment for the
// given title and body. Degradation chain: full summarize call with
// retries, raw non-JSON output accepted as summary when non-trivial, bare
// title translation, and finally ErrUntranslatable when nothing usable
// came back.
func (t *Translator) SummarizeAndTranslate(ctx context.Context, title, text string) (domain.Translation, error) {
	content := title
	if text != "" {
		content = title + "\n\n" + text
	}
	if len(content) > maxContentLen {
		content = content[:maxContentLen] + "..."
	}
	if strings.TrimSpace(content) == "" {
		return domain.Translation{Summary: title, Sentiment: domain.SentimentNeutral}, nil
	}

	raw, err := t.complete(ctx, summarizeSystemPrompt, content, t.cfg.Retries, t.cfg.RetryDelay)
	if err != nil {
		return t.fallbackTitle(ctx, title)
	}

	parsed, err := parseContract(raw)
	if err != nil {
		// non-JSON output still counts when it looks like a real summary
		if len(strings.TrimSpace(raw)) > minUsefulLen {
			return domain.Translation{Summary: strings.TrimSpace(raw), Sentiment: domain.SentimentNeutral}, nil
		}
		return t.fallbackTitle(ctx, title)
	}

	summary := CleanSummary(parsed.Summary)
	if len(summary) <= minUsefulLen {
		summary = title
	}
	sentiment := parsed.Sentiment
	if !sentiment.Valid() {
		sentiment = domain.SentimentNeutral
	}
	return domain.Translation{Summary: summary, Sentiment: sentiment}, nil
}

// Translate returns a bare Turkish translation of the text, no summary, no
// sentiment
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	raw, err := t.complete(ctx, translateSystemPrompt, text, 1, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// fallbackTitle attempts a bare translation of the title alone. When the
// output equals the input or is too short, translation is deemed failed and
// ErrUntranslatable goes up so the caller skips the item.
func (t *Translator) fallbackTitle(ctx context.Context, title string) (domain.Translation, error) {
	raw, err := t.complete(ctx, translateSystemPrompt, title, 2, 500*time.Millisecond)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("%w: %s", ErrUntranslatable, err)
	}

	translated := strings.TrimSpace(raw)
	if translated == title || len(translated) <= minUsefulLen {
		return domain.Translation{}, fmt.Errorf("%w: fallback produced no usable translation", ErrUntranslatable)
	}
	return domain.Translation{Summary: translated, Sentiment: domain.SentimentNeutral}, nil
}

// complete runs one chat completion with exponential-backoff retries
func (t *Translator) complete(ctx context.Context, systemPrompt, userContent string, attempts int, delay time.Duration) (string, error) {
	var result string

	run := func() error {
		resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       t.cfg.Model,
			Temperature: float32(t.cfg.Temperature),
			MaxTokens:   t.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userContent},
			},
		})
		if err != nil {
			return fmt.Errorf("llm request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no response from llm")
		}
		result = resp.Choices[0].Message.Content
		return nil
	}

	if attempts <= 1 {
		if err := run(); err != nil {
			return "", err
		}
		return result, nil
	}

	retrier := repeater.NewBackoff(attempts, delay, repeater.WithMaxDelay(30*time.Second))
	if err := retrier.Do(ctx, run); err != nil {
		return "", err
	}
	return result, nil
}

// contract is the JSON shape the summarize prompt demands
type contract struct {
	Summary   string           `json:"summary"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// parseContract strips markdown code fences and decodes the JSON contract
func parseContract(raw string) (contract, error) {
	cleaned := strings.TrimSpace(fenceStripper.Replace(raw))
	var c contract
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return contract{}, fmt.Errorf("parse llm response: %w", err)
	}
	return c, nil
}
