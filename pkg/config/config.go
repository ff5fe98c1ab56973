package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Sources []Source `yaml:"sources" json:"sources" jsonschema:"description=News sources to aggregate"`

	Images struct {
		BackfillLimit int           `yaml:"backfill_limit" json:"backfill_limit" jsonschema:"default=50,description=Maximum items considered for image backfill per aggregation"`
		BackfillBatch int           `yaml:"backfill_batch" json:"backfill_batch" jsonschema:"default=10,description=Concurrent page visits per backfill batch"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Timeout per page visit during backfill"`
	} `yaml:"images" json:"images" jsonschema:"description=Image backfill configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for translation and summarization"`

	Scrape struct {
		Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Timeout per article scrape"`
		MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum extracted text length to consider valid"`
	} `yaml:"scrape" json:"scrape" jsonschema:"description=Full-article scraping configuration"`

	Cache struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:kriptoskop.db?cache=shared&mode=rwc,description=Translation cache connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Translation cache configuration"`
}

// Source describes one news source. A source needs a feed URL, a page URL
// or both; the page URL doubles as the scrape fallback target.
type Source struct {
	Name    string  `yaml:"name" json:"name" jsonschema:"required,description=Source display name"`
	FeedURL string  `yaml:"feed_url" json:"feed_url" jsonschema:"description=RSS/Atom feed URL"`
	PageURL string  `yaml:"page_url" json:"page_url" jsonschema:"description=Listing page URL for scrape fallback"`
	Weight  float64 `yaml:"weight" json:"weight" jsonschema:"default=0.9,minimum=0,maximum=1,description=Base relevance score for this source"`
}

// LLMConfig holds LLM settings for translation and summarization
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"required,description=OpenAI-compatible API endpoint"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"required,description=Model name (e.g. gpt-4o-mini or llama3)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=500,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	Retries     int           `yaml:"retries" json:"retries" jsonschema:"default=3,description=Attempts per summarize request"`
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Initial backoff delay between attempts"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// without configured sources fall back to the built-in crypto set
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Weight == 0 {
			cfg.Sources[i].Weight = 0.9
		}
	}

	// set defaults for images
	if cfg.Images.BackfillLimit == 0 {
		cfg.Images.BackfillLimit = 50
	}
	if cfg.Images.BackfillBatch == 0 {
		cfg.Images.BackfillBatch = 10
	}
	if cfg.Images.Timeout == 0 {
		cfg.Images.Timeout = 10 * time.Second
	}

	// set defaults for LLM
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.Retries == 0 {
		cfg.LLM.Retries = 3
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = time.Second
	}

	// set defaults for scrape
	if cfg.Scrape.Timeout == 0 {
		cfg.Scrape.Timeout = 15 * time.Second
	}
	if cfg.Scrape.MinTextLength == 0 {
		cfg.Scrape.MinTextLength = 100
	}

	// set defaults for cache
	if cfg.Cache.DSN == "" {
		cfg.Cache.DSN = "file:kriptoskop.db?cache=shared&mode=rwc"
	}
	if cfg.Cache.MaxOpenConns == 0 {
		cfg.Cache.MaxOpenConns = 10
	}
	if cfg.Cache.MaxIdleConns == 0 {
		cfg.Cache.MaxIdleConns = 5
	}
	if cfg.Cache.ConnMaxLifetime == 0 {
		cfg.Cache.ConnMaxLifetime = 3600
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultSources returns the built-in crypto news sources
func DefaultSources() []Source {
	return []Source{
		{Name: "Bloomberg Crypto", FeedURL: "https://www.bloomberg.com/crypto/rss.xml", PageURL: "https://www.bloomberg.com/crypto", Weight: 0.9},
		{Name: "Velo.xyz", FeedURL: "https://velo.xyz/feed", PageURL: "https://velo.xyz", Weight: 0.9},
		{Name: "Watcher Guru", FeedURL: "https://watcher.guru/feed", PageURL: "https://watcher.guru", Weight: 0.9},
		{Name: "CoinLaw.io", FeedURL: "https://coinlaw.io/feed", PageURL: "https://coinlaw.io", Weight: 0.9},
		{Name: "Cryptopolitan", FeedURL: "https://www.cryptopolitan.com/feed", PageURL: "https://www.cryptopolitan.com", Weight: 0.9},
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	for _, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("source name is required")
		}
		if src.FeedURL == "" && src.PageURL == "" {
			return fmt.Errorf("source %q needs feed_url or page_url", src.Name)
		}
		if src.Weight < 0 || src.Weight > 1 {
			return fmt.Errorf("source %q weight must be between 0 and 1", src.Name)
		}
	}

	if cfg.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	if cfg.Images.BackfillBatch > cfg.Images.BackfillLimit {
		return fmt.Errorf("images.backfill_batch cannot exceed images.backfill_limit")
	}

	if cfg.Scrape.Timeout < time.Second {
		return fmt.Errorf("scrape timeout must be at least 1 second")
	}
	if cfg.Scrape.MinTextLength < 0 {
		return fmt.Errorf("scrape min_text_length must be non-negative")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}
