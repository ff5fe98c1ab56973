package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
	"github.com/kriptoskop/kriptoskop/pkg/translate"
)

// decodeJSON decodes a request body rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// newsHandler serves the aggregated list, refetching when the cached result
// went stale. Query params: limit caps the number of items, refresh=true
// forces a refetch.
func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	stale := time.Since(s.lastFetch) > s.cfg.RefreshInterval
	if stale || r.URL.Query().Get("refresh") == "true" {
		s.lastFetch = time.Now()
		s.lock.Unlock()
		s.aggregator.FetchAll(r.Context())
	} else {
		s.lock.Unlock()
	}

	items := s.aggregator.Items()

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			renderError(w, r, fmt.Errorf("invalid limit %q", limitStr), http.StatusBadRequest)
			return
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}

	if items == nil {
		items = []domain.NewsItem{}
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"news":  items,
		"count": len(items),
	})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// scrapeHandler extracts the full article text and lead image for a URL
func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		renderError(w, r, fmt.Errorf("invalid url: %w", err), http.StatusBadRequest)
		return
	}

	text, err := s.scraper.Extract(r.Context(), req.URL)
	if err != nil {
		log.Printf("[WARN] scrape failed for %s: %v", req.URL, err)
		renderError(w, r, fmt.Errorf("scrape failed: %w", err), http.StatusBadGateway)
		return
	}

	renderJSON(w, r, http.StatusOK, scrapeResponse{
		URL:   req.URL,
		Text:  text,
		Image: s.scraper.PageImage(r.Context(), req.URL),
	})
}

type translateRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type translateResponse struct {
	ID        string           `json:"id"`
	Summary   string           `json:"summary"`
	Sentiment domain.Sentiment `json:"sentiment"`
	Cached    bool             `json:"cached"`
}

// translateHandler returns the Turkish summary for an item, serving from
// the cache when possible. An untranslatable item gets 422 so the caller
// knows to drop it rather than show original text.
func (s *Server) translateHandler(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Title == "" {
		renderError(w, r, fmt.Errorf("id and title are required"), http.StatusBadRequest)
		return
	}

	if s.cache != nil {
		if cached, found, err := s.cache.Get(r.Context(), req.ID); err != nil {
			log.Printf("[WARN] translation cache read failed for %s: %v", req.ID, err)
		} else if found {
			renderJSON(w, r, http.StatusOK, translateResponse{
				ID: req.ID, Summary: cached.Summary, Sentiment: cached.Sentiment, Cached: true,
			})
			return
		}
	}

	tr, err := s.translator.SummarizeAndTranslate(r.Context(), req.Title, req.Text)
	if err != nil {
		if errors.Is(err, translate.ErrUntranslatable) {
			renderError(w, r, err, http.StatusUnprocessableEntity)
			return
		}
		renderError(w, r, fmt.Errorf("translation failed: %w", err), http.StatusBadGateway)
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(r.Context(), req.ID, tr); err != nil {
			log.Printf("[WARN] translation cache write failed for %s: %v", req.ID, err)
		}
	}

	renderJSON(w, r, http.StatusOK, translateResponse{
		ID: req.ID, Summary: tr.Summary, Sentiment: tr.Sentiment, Cached: false,
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	lastFetch := s.lastFetch
	s.lock.Unlock()

	status := map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().UTC(),
		"items":   len(s.aggregator.Items()),
	}
	if !lastFetch.IsZero() {
		status["last_fetch"] = lastFetch.UTC()
	}
	renderJSON(w, r, http.StatusOK, status)
}
