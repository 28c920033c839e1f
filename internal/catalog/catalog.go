// Package catalog holds the current immutable snapshot of merged cities and
// their supplementary data, and swaps it atomically on reload.
package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/marker"
	"github.com/sells-group/city-explorer/internal/merge"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/names"
	"github.com/sells-group/city-explorer/internal/query"
	"github.com/sells-group/city-explorer/internal/source"
)

// ErrSuperseded is returned by Reload when a newer reload already installed
// its snapshot.
var ErrSuperseded = errors.New("catalog: reload superseded by a newer one")

// Snapshot is one fully built, read-only view of the data.
type Snapshot struct {
	Generation uint64
	Cities     []model.MergedCity
	Border     *geo.Border
	Report     merge.Report
	Problems   []source.Problem
	LoadedAt   time.Time

	images map[string][]string
	news   map[string][]model.NewsItem
}

// Build merges a loaded bundle into a snapshot. Marker identities are
// assigned once here.
func Build(b *source.Bundle, generation uint64) *Snapshot {
	s := &Snapshot{
		Generation: generation,
		Cities:     marker.Assign(merge.Merge(b.Points, b.Metadata)),
		Border:     b.Border,
		Report:     merge.Unmatched(b.Points, b.Metadata),
		Problems:   b.Problems,
		LoadedAt:   b.LoadedAt,
		images:     make(map[string][]string, len(b.Images)),
		news:       make(map[string][]model.NewsItem, len(b.News)),
	}
	for _, img := range b.Images {
		k := names.Key(img.City)
		s.images[k] = append(s.images[k], img.ImageURL)
	}
	for city, items := range b.News {
		k := names.Key(city)
		s.news[k] = append(s.news[k], items...)
	}
	return s
}

// Images returns the image URLs for a city name, or nil.
func (s *Snapshot) Images(name string) []string {
	return s.images[names.Key(name)]
}

// News returns the news items for a city name, or nil.
func (s *Snapshot) News(name string) []model.NewsItem {
	return s.news[names.Key(name)]
}

// Catalog serves the current snapshot. Until the first successful load it is
// in the loading state.
type Catalog struct {
	src     source.Source
	cache   *ResultCache
	current atomic.Pointer[Snapshot]
	started atomic.Uint64

	mu      sync.Mutex // serializes installs
	lastErr error
}

// New creates an empty catalog reading from src.
func New(src source.Source, cache *ResultCache) *Catalog {
	return &Catalog{src: src, cache: cache}
}

// NewStatic creates a catalog already holding snap.
func NewStatic(snap *Snapshot, cache *ResultCache) *Catalog {
	c := &Catalog{cache: cache}
	c.started.Store(snap.Generation)
	c.current.Store(snap)
	return c
}

// Reload loads every dataset and installs a new snapshot. On failure the
// previous snapshot, if any, stays in place. A reload that finishes after a
// newer reload has been installed is discarded with ErrSuperseded.
func (c *Catalog) Reload(ctx context.Context) error {
	if c.src == nil {
		return errors.New("catalog: no source configured")
	}
	log := zap.L().With(zap.String("component", "catalog"))
	gen := c.started.Add(1)
	start := time.Now()

	b, err := source.Load(ctx, c.src)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		log.Error("reload failed", zap.Uint64("generation", gen), zap.Error(err))
		return err
	}
	snap := Build(b, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.current.Load(); cur != nil && cur.Generation > gen {
		log.Warn("discarding stale reload",
			zap.Uint64("generation", gen),
			zap.Uint64("current", cur.Generation),
		)
		return ErrSuperseded
	}
	c.current.Store(snap)
	c.lastErr = nil
	c.cache.Purge()

	log.Info("snapshot installed",
		zap.Uint64("generation", gen),
		zap.Int("cities", len(snap.Cities)),
		zap.Int("points_without_metadata", len(snap.Report.PointsWithoutMetadata)),
		zap.Int("problems", len(snap.Problems)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Snapshot returns the current snapshot, or false while loading.
func (c *Catalog) Snapshot() (*Snapshot, bool) {
	s := c.current.Load()
	return s, s != nil
}

// LastError returns the error of the most recent failed reload, cleared by
// the next successful one.
func (c *Catalog) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Markers returns the unfiltered merged list with marker identities, or false
// while loading.
func (c *Catalog) Markers() ([]model.MergedCity, bool) {
	s, ok := c.Snapshot()
	if !ok {
		return nil, false
	}
	return s.Cities, true
}

// Query applies st to the current snapshot, or returns false while loading.
// The returned slice may be shared with other callers and must not be
// modified.
func (c *Catalog) Query(st query.State) ([]model.MergedCity, bool) {
	s, ok := c.Snapshot()
	if !ok {
		return nil, false
	}
	key := st.Key()
	if cached, hit := c.cache.Get(s.Generation, key); hit {
		return cached, true
	}
	out := query.Apply(s.Cities, st)
	c.cache.Put(s.Generation, key, out)
	return out, true
}

// CacheStats reports the result cache counters.
func (c *Catalog) CacheStats() CacheStats {
	return c.cache.Stats()
}

// Watch reloads on every interval tick and every trigger receive until ctx
// is done. A zero interval disables the ticker. Failures keep the previous
// snapshot.
func (c *Catalog) Watch(ctx context.Context, interval time.Duration, trigger <-chan struct{}) {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-trigger:
		}
		_ = c.Reload(ctx)
	}
}
