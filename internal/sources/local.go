package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/desertthunder/karaoke/internal/models"
)

const (
	// downloadPrefix is prepended to filenames by a popular download site.
	downloadPrefix = "y2mate.com - "
	// MediaPrefix is the URL path the music directory is served under.
	MediaPrefix = "/Music/"
	otherType   = "other"
)

// songTypes is checked in order; the first type with a matching keyword wins.
var songTypes = []struct {
	name     string
	keywords []string
}{
	{"pop", []string{"pop", "dance", "disco"}},
	{"rock", []string{"rock", "metal", "punk", "guitar"}},
	{"remix", []string{"remix", "edm", "techno", "house"}},
	{"traditional", []string{"arirang", "dân ca", "quê hương"}},
	{"karaoke", []string{"karaoke"}},
	{"sentai", []string{"sentai", "gokaiger"}},
}

// CleanTitle derives a title and artist from an MP3 filename.
//
// The download prefix and extension are removed; then the name is split once on " - " into
// artist and title, or else on the first double space. Names with neither keep an empty artist.
func CleanTitle(filename string) (title, artist string) {
	name := filename
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".mp3") {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.TrimPrefix(name, downloadPrefix)

	if a, t, ok := strings.Cut(name, " - "); ok {
		return strings.TrimSpace(t), strings.TrimSpace(a)
	}
	if a, t, ok := strings.Cut(name, "  "); ok {
		return strings.TrimSpace(t), strings.TrimSpace(a)
	}
	return strings.TrimSpace(name), ""
}

// SongType infers a song type from keywords in title, defaulting to "other".
func SongType(title string) string {
	lower := strings.ToLower(title)
	for _, st := range songTypes {
		if lo.SomeBy(st.keywords, func(k string) bool { return strings.Contains(lower, k) }) {
			return st.name
		}
	}
	return otherType
}

// LocalResult builds the search entry for a file in the music directory.
func LocalResult(filename string) models.SearchResult {
	title, artist := CleanTitle(filename)
	return models.SearchResult{
		Title:  title,
		Artist: artist,
		Type:   SongType(title),
		Path:   MediaPrefix + filename,
	}
}

// Matches reports whether r matches query by case-insensitive substring on title, artist or type.
func Matches(r models.SearchResult, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		(r.Artist != "" && strings.Contains(strings.ToLower(r.Artist), q)) ||
		strings.Contains(strings.ToLower(r.Type), q)
}

// LocalCatalog lists the MP3 files of a music directory.
//
// Without a running [LocalCatalog.Watch] every call reads the directory. While watching, the listing
// is cached and invalidated on filesystem events.
type LocalCatalog struct {
	dir    string
	logger *log.Logger

	mu       sync.RWMutex
	cached   []models.SearchResult
	fresh    bool
	watching atomic.Bool
}

// NewLocalCatalog creates a catalog over dir.
func NewLocalCatalog(dir string, logger *log.Logger) *LocalCatalog {
	if logger == nil {
		logger = log.Default()
	}
	return &LocalCatalog{dir: dir, logger: logger}
}

// Dir returns the music directory.
func (c *LocalCatalog) Dir() string { return c.dir }

// List returns every MP3 in the directory sorted by filename.
//
// A missing directory is an empty catalog.
func (c *LocalCatalog) List(ctx context.Context) ([]models.SearchResult, error) {
	if c.watching.Load() {
		c.mu.RLock()
		if c.fresh {
			out := append([]models.SearchResult(nil), c.cached...)
			c.mu.RUnlock()
			return out, nil
		}
		c.mu.RUnlock()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		entries = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read music directory: %w", err)
	}

	results := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (models.SearchResult, bool) {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			return models.SearchResult{}, false
		}
		return LocalResult(e.Name()), true
	})
	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if c.watching.Load() {
		c.mu.Lock()
		c.cached, c.fresh = results, true
		c.mu.Unlock()
	}
	return append([]models.SearchResult(nil), results...), nil
}

// Filter returns the entries matching query. An empty query returns the whole catalog.
func (c *LocalCatalog) Filter(ctx context.Context, query string) ([]models.SearchResult, error) {
	all, err := c.List(ctx)
	if err != nil || query == "" {
		return all, err
	}
	return lo.Filter(all, func(r models.SearchResult, _ int) bool { return Matches(r, query) }), nil
}

// Tracks returns the catalog as playable tracks.
func (c *LocalCatalog) Tracks(ctx context.Context) ([]models.Track, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return ResultsToTracks(all), nil
}

// Watch caches the listing and invalidates it on changes until ctx is done.
func (c *LocalCatalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}

	c.watching.Store(true)
	defer func() {
		c.watching.Store(false)
		c.invalidate()
	}()

	c.logger.Debug("watching music directory", "dir", c.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				c.logger.Debug("music directory changed", "event", event.Op.String(), "name", event.Name)
				c.invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("music directory watch error", "error", err)
			c.invalidate()
		}
	}
}

func (c *LocalCatalog) invalidate() {
	c.mu.Lock()
	c.cached, c.fresh = nil, false
	c.mu.Unlock()
}
