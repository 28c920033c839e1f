// Package source fetches the read-only city datasets from a directory, an
// HTTP base URL or the database store.
package source

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/model"
)

// Source provides the five datasets the catalog is built from.
type Source interface {
	Points(ctx context.Context) ([]model.CityPoint, error)
	Metadata(ctx context.Context) ([]model.CityMetadata, error)
	Images(ctx context.Context) ([]model.CityImage, error)
	News(ctx context.Context) (map[string][]model.NewsItem, error)
	Border(ctx context.Context) (*geo.Border, error)
}

// Files names each dataset relative to an Opener.
type Files struct {
	Border   string
	Points   string
	Metadata string
	Images   string
	News     string
}

// DefaultFiles are the dataset names published with the explorer.
var DefaultFiles = Files{
	Border:   "mn_border.geojson",
	Points:   "mn_cities_dec.json",
	Metadata: "cities_full.json",
	Images:   "city_images.json",
	News:     "city_news.json",
}

// OpenerSource decodes datasets read through an Opener.
type OpenerSource struct {
	opener Opener
	files  Files
}

// NewOpenerSource creates a Source reading files through opener.
func NewOpenerSource(opener Opener, files Files) *OpenerSource {
	return &OpenerSource{opener: opener, files: files}
}

// Points fetches and decodes the points file.
func (s *OpenerSource) Points(ctx context.Context) ([]model.CityPoint, error) {
	rc, err := s.opener.Open(ctx, s.files.Points)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return DecodePoints(rc)
}

// Metadata fetches and decodes the metadata file.
func (s *OpenerSource) Metadata(ctx context.Context) ([]model.CityMetadata, error) {
	rc, err := s.opener.Open(ctx, s.files.Metadata)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return DecodeMetadata(rc)
}

// Images fetches and decodes the images file.
func (s *OpenerSource) Images(ctx context.Context) ([]model.CityImage, error) {
	rc, err := s.opener.Open(ctx, s.files.Images)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return DecodeImages(rc)
}

// News fetches and decodes the news file.
func (s *OpenerSource) News(ctx context.Context) (map[string][]model.NewsItem, error) {
	rc, err := s.opener.Open(ctx, s.files.News)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return DecodeNews(rc)
}

// Border fetches and parses the border GeoJSON.
func (s *OpenerSource) Border(ctx context.Context) (*geo.Border, error) {
	rc, err := s.opener.Open(ctx, s.files.Border)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return geo.ParseBorder(rc)
}

// Problem records an optional dataset that failed to load.
type Problem struct {
	Dataset string `json:"dataset"`
	Error   string `json:"error"`
}

// Bundle holds everything one load produced. Optional datasets that failed
// are empty and listed in Problems.
type Bundle struct {
	Points   []model.CityPoint
	Metadata []model.CityMetadata
	Images   []model.CityImage
	News     map[string][]model.NewsItem
	Border   *geo.Border
	Problems []Problem
	LoadedAt time.Time
}

// Load fetches all datasets concurrently. A points failure fails the load;
// any other failure is logged and degrades to empty data.
func Load(ctx context.Context, src Source) (*Bundle, error) {
	b := &Bundle{News: map[string][]model.NewsItem{}}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	optional := func(name string, fn func(ctx context.Context) error) func() error {
		return func() error {
			if err := fn(gctx); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				zap.L().Warn("source: optional dataset unavailable",
					zap.String("dataset", name),
					zap.Error(err),
				)
				mu.Lock()
				b.Problems = append(b.Problems, Problem{Dataset: name, Error: err.Error()})
				mu.Unlock()
			}
			return nil
		}
	}

	g.Go(func() error {
		pts, err := src.Points(gctx)
		if err != nil {
			return eris.Wrap(err, "source: load points")
		}
		b.Points = pts
		return nil
	})
	g.Go(optional("metadata", func(ctx context.Context) error {
		m, err := src.Metadata(ctx)
		if err == nil {
			b.Metadata = m
		}
		return err
	}))
	g.Go(optional("images", func(ctx context.Context) error {
		imgs, err := src.Images(ctx)
		if err == nil {
			b.Images = imgs
		}
		return err
	}))
	g.Go(optional("news", func(ctx context.Context) error {
		n, err := src.News(ctx)
		if err == nil && n != nil {
			b.News = n
		}
		return err
	}))
	g.Go(optional("border", func(ctx context.Context) error {
		br, err := src.Border(ctx)
		if err == nil {
			b.Border = br
		}
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.LoadedAt = time.Now().UTC()
	zap.L().Info("source: datasets loaded",
		zap.Int("points", len(b.Points)),
		zap.Int("metadata", len(b.Metadata)),
		zap.Int("images", len(b.Images)),
		zap.Int("news_cities", len(b.News)),
		zap.Bool("border", b.Border != nil),
		zap.Int("problems", len(b.Problems)),
	)
	return b, nil
}
