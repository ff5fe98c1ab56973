// Package server exposes the aggregated news over a JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

//go:generate moq -out mocks/aggregator.go -pkg mocks -skip-ensure -fmt goimports . Aggregator
//go:generate moq -out mocks/scraper.go -pkg mocks -skip-ensure -fmt goimports . Scraper
//go:generate moq -out mocks/translator.go -pkg mocks -skip-ensure -fmt goimports . Translator
//go:generate moq -out mocks/cache.go -pkg mocks -skip-ensure -fmt goimports . TranslationCache

// Aggregator fetches and serves the merged news list
type Aggregator interface {
	FetchAll(ctx context.Context) []domain.NewsItem
	Items() []domain.NewsItem
}

// Scraper extracts full article content and lead images
type Scraper interface {
	Extract(ctx context.Context, url string) (string, error)
	PageImage(ctx context.Context, url string) string
}

// Translator produces Turkish summaries with sentiment
type Translator interface {
	SummarizeAndTranslate(ctx context.Context, title, text string) (domain.Translation, error)
}

// TranslationCache persists translations across requests
type TranslationCache interface {
	Get(ctx context.Context, itemID string) (domain.Translation, bool, error)
	Set(ctx context.Context, itemID string, tr domain.Translation) error
}

// Config holds server settings
type Config struct {
	Listen          string
	Timeout         time.Duration
	RefreshInterval time.Duration // how long the aggregated list stays fresh
	Version         string
	Debug           bool
}

// Server represents HTTP server instance
type Server struct {
	cfg        Config
	aggregator Aggregator
	scraper    Scraper
	translator Translator
	cache      TranslationCache

	lock       sync.Mutex
	lastFetch  time.Time
	httpServer *http.Server
	router     *routegroup.Bundle
}

// New initializes a new server instance
func New(cfg Config, agg Aggregator, scraper Scraper, translator Translator, cache TranslationCache) *Server {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	s := &Server{
		cfg:        cfg,
		aggregator: agg,
		scraper:    scraper,
		translator: translator,
		cache:      cache,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("kriptoskop", "kriptoskop", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /news", s.newsHandler)
		r.HandleFunc("POST /scrape", s.scrapeHandler)
		r.HandleFunc("POST /translate", s.translateHandler)
		r.HandleFunc("GET /status", s.statusHandler)
	})
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
