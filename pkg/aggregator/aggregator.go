// Package aggregator coordinates concurrent source fetches and merges the
// results into one deduplicated, deterministically ordered list.
package aggregator

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/image_finder.go -pkg mocks -skip-ensure -fmt goimports . ImageFinder

// Fetcher retrieves news items from a single source
type Fetcher interface {
	Fetch(ctx context.Context) []domain.NewsItem
	Name() string
}

// ImageFinder locates a lead image on an article page
type ImageFinder interface {
	PageImage(ctx context.Context, pageURL string) string
}

// Aggregator fans out over sources and merges results
type Aggregator struct {
	fetchers      []Fetcher
	images        ImageFinder
	backfillLimit int
	backfillBatch int
	mu            sync.RWMutex
	items         []domain.NewsItem
}

// New creates an Aggregator over the given fetchers. The images finder may
// be nil to disable image backfill.
func New(fetchers []Fetcher, images ImageFinder, backfillLimit, backfillBatch int) *Aggregator {
	if backfillLimit <= 0 {
		backfillLimit = 50
	}
	if backfillBatch <= 0 {
		backfillBatch = 10
	}
	return &Aggregator{
		fetchers:      fetchers,
		images:        images,
		backfillLimit: backfillLimit,
		backfillBatch: backfillBatch,
	}
}

// FetchAll fetches every source concurrently, merges, deduplicates and
// sorts the combined list, then backfills missing images. Sources that
// return nothing are logged and skipped, never fatal.
func (a *Aggregator) FetchAll(ctx context.Context) []domain.NewsItem {
	var wg sync.WaitGroup
	results := make([][]domain.NewsItem, len(a.fetchers))

	for i, f := range a.fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()

			items := f.Fetch(ctx)
			if len(items) == 0 {
				log.Printf("[WARN] no items from %s", f.Name())
				return
			}
			log.Printf("[INFO] fetched %d items from %s", len(items), f.Name())
			results[i] = items
		}(i, f)
	}
	wg.Wait()

	// merge in declaration order so dedup's last-write-wins is deterministic
	all := make([]domain.NewsItem, 0)
	for _, items := range results {
		all = append(all, items...)
	}

	merged := Dedup(all)
	Sort(merged)
	a.backfillImages(ctx, merged)

	a.mu.Lock()
	a.items = merged
	a.mu.Unlock()

	log.Printf("[INFO] total items after merge: %d", len(merged))
	return merged
}

// Items returns the last merged result
func (a *Aggregator) Items() []domain.NewsItem {
	a.mu.RLock()
	defer a.mu.RUnlock()

	items := make([]domain.NewsItem, len(a.items))
	copy(items, a.items)
	return items
}

// Dedup removes duplicate URLs keeping the last occurrence, preserving the
// relative order of first appearance
func Dedup(items []domain.NewsItem) []domain.NewsItem {
	index := make(map[string]int, len(items))
	result := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if pos, ok := index[item.URL]; ok {
			result[pos] = item
			continue
		}
		index[item.URL] = len(result)
		result = append(result, item)
	}
	return result
}

// Sort orders items newest first. Dated items always precede undated ones,
// dated items compare by publish date descending, undated by score
// descending. Ties keep their existing order.
func Sort(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].PublishedDate, items[j].PublishedDate
		switch {
		case di != nil && dj != nil:
			return di.After(*dj)
		case di != nil:
			return true
		case dj != nil:
			return false
		default:
			return items[i].Score > items[j].Score
		}
	})
}

// backfillImages visits article pages for the top items that came back
// without an image. Batches run sequentially so one slow page never blocks
// the whole pass, items inside a batch run concurrently.
func (a *Aggregator) backfillImages(ctx context.Context, items []domain.NewsItem) {
	if a.images == nil {
		return
	}

	var missing []int
	for i := range items {
		if items[i].Image == "" {
			missing = append(missing, i)
		}
		if len(missing) >= a.backfillLimit {
			break
		}
	}
	if len(missing) == 0 {
		return
	}
	log.Printf("[INFO] backfilling images for %d items", len(missing))

	found := 0
	for start := 0; start < len(missing); start += a.backfillBatch {
		end := start + a.backfillBatch
		if end > len(missing) {
			end = len(missing)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.backfillBatch)
		var mu sync.Mutex

		for _, idx := range missing[start:end] {
			g.Go(func() error {
				img := a.images.PageImage(gctx, items[idx].URL)
				if img == "" {
					return nil
				}
				mu.Lock()
				items[idx].Image = img
				found++
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait() // workers never return errors, fetch failures just leave the image empty
	}

	log.Printf("[INFO] image backfill found %d of %d", found, len(missing))
}
