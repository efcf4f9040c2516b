// package search merges the local catalog with YouTube results and caches the combined response
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/sources"
)

// LocalLimit caps the number of local entries in a non-empty search.
const LocalLimit = 10

const karaokeSuffix = " karaoke"

// Catalog filters the local music directory. [sources.LocalCatalog] implements it.
type Catalog interface {
	Filter(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Remote runs video searches. [services.YouTubeService] implements it.
type Remote interface {
	Configured() bool
	Search(ctx context.Context, p services.SearchParams) (*services.YouTubeSearchResponse, error)
}

// Opts configures an [Aggregator]. Remote and Cache are optional.
type Opts struct {
	Catalog Catalog
	Remote  Remote
	Cache   Cache
	TTL     time.Duration
	Logger  *log.Logger
}

// Aggregator fans a query out to the local catalog and the remote search.
type Aggregator struct {
	catalog Catalog
	remote  Remote
	cache   Cache
	ttl     time.Duration
	logger  *log.Logger
}

// NewAggregator creates an aggregator. A nil cache disables caching.
func NewAggregator(opts Opts) *Aggregator {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Aggregator{
		catalog: opts.Catalog,
		remote:  opts.Remote,
		cache:   opts.Cache,
		ttl:     opts.TTL,
		logger:  opts.Logger.With("component", "search"),
	}
}

// Normalize lowercases and trims a raw query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search returns local matches (at most [LocalLimit]) followed by deduplicated remote hits.
//
// An empty query returns the whole local catalog without touching the remote search or the cache.
// Remote failures are logged and yield zero remote items; the response is cached regardless.
// Only a local catalog failure fails the search.
func (a *Aggregator) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	q := Normalize(query)
	if q == "" {
		all, err := a.catalog.Filter(ctx, "")
		if err != nil {
			return models.SearchResponse{}, fmt.Errorf("local search: %w", err)
		}
		return models.SearchResponse{Success: true, Results: nonNil(all)}, nil
	}

	key := CacheKey(q)
	if resp, ok := a.cached(ctx, key); ok {
		return resp, nil
	}

	var (
		wg       sync.WaitGroup
		local    []models.SearchResult
		localErr error
		remote   []models.SearchResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		local, localErr = a.catalog.Filter(ctx, q)
	}()
	go func() {
		defer wg.Done()
		remote = a.searchRemote(ctx, q)
	}()
	wg.Wait()

	if localErr != nil {
		return models.SearchResponse{}, fmt.Errorf("local search: %w", localErr)
	}
	if len(local) > LocalLimit {
		local = local[:LocalLimit]
	}

	results := make([]models.SearchResult, 0, len(local)+len(remote))
	results = append(results, local...)
	results = append(results, remote...)
	resp := models.SearchResponse{Success: true, Results: results}

	a.store(ctx, key, resp)
	return resp, nil
}

// searchRemote runs the karaoke and plain sub-queries in parallel.
//
// If either fails the remote leg contributes nothing.
func (a *Aggregator) searchRemote(ctx context.Context, q string) []models.SearchResult {
	if a.remote == nil || !a.remote.Configured() {
		return nil
	}

	queries := []string{q + karaokeSuffix, q}
	items := make([][]services.YouTubeSearchItem, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, sub := range queries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := a.remote.Search(ctx, services.SearchParams{Query: sub})
			if err != nil {
				errs[i] = err
				return
			}
			items[i] = resp.Items
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			a.logger.Warn("remote search failed", "query", queries[i], "error", err)
			return nil
		}
	}

	var all []services.YouTubeSearchItem
	for _, batch := range items {
		all = append(all, batch...)
	}
	return sources.SearchItemsToResults(all)
}

func (a *Aggregator) cached(ctx context.Context, key string) (models.SearchResponse, bool) {
	if a.cache == nil {
		return models.SearchResponse{}, false
	}

	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("cache read failed", "key", key, "error", err)
		return models.SearchResponse{}, false
	}
	if !ok {
		return models.SearchResponse{}, false
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		a.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return models.SearchResponse{}, false
	}
	resp.Results = nonNil(resp.Results)
	a.logger.Debug("cache hit", "key", key)
	return resp, true
}

func (a *Aggregator) store(ctx context.Context, key string, resp models.SearchResponse) {
	if a.cache == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		a.logger.Warn("failed to encode search response", "error", err)
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.ttl); err != nil {
		a.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func nonNil(results []models.SearchResult) []models.SearchResult {
	if results == nil {
		return []models.SearchResult{}
	}
	return results
}
