// Package resolve turns a URL slug into a city detail view. It tells apart
// data that is still loading from a slug that matches nothing.
package resolve

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/names"
)

// Status is the outcome of resolving a slug.
type Status int

const (
	StatusLoading Status = iota
	StatusNotFound
	StatusFound
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusNotFound:
		return "not_found"
	case StatusFound:
		return "found"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML encodes the status by name.
func (s Status) MarshalYAML() (any, error) {
	return s.String(), nil
}

// Resolution is the result of Resolve. Detail is set only when Status is
// StatusFound.
type Resolution struct {
	Slug   string        `json:"slug"`
	Status Status        `json:"status"`
	Detail *model.Detail `json:"detail,omitempty"`
}

// Provider supplies records to resolve against. ready is false while the
// provider's data is still loading.
type Provider interface {
	Cities(ctx context.Context) (cities []model.MergedCity, ready bool, err error)
}

// Supplements supplies optional per-city images and news, looked up by
// display name.
type Supplements interface {
	Images(ctx context.Context, name string) ([]string, error)
	News(ctx context.Context, name string) ([]model.NewsItem, error)
}

// Resolver scans providers in order; the first exact slug match wins.
type Resolver struct {
	providers   []Provider
	supplements Supplements
}

// New creates a Resolver. supplements may be nil.
func New(supplements Supplements, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, supplements: supplements}
}

// ForCatalog creates a Resolver over a catalog's current snapshot.
func ForCatalog(c *catalog.Catalog) *Resolver {
	p := CatalogProvider{Catalog: c}
	return New(p, p)
}

// Resolve looks up slug, ignoring surrounding space and letter case. It
// returns StatusLoading when no provider matched and at least one was not
// ready or failed, and StatusNotFound only when every provider was searched.
// The only error is ctx cancellation.
func (r *Resolver) Resolve(ctx context.Context, slug string) (Resolution, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	res := Resolution{Slug: slug, Status: StatusNotFound}

	pending := false
	for i, p := range r.providers {
		cities, ready, err := p.Cities(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{}, ctxErr
		}
		if err != nil {
			zap.L().Warn("resolve: provider unavailable", zap.Int("provider", i), zap.Error(err))
			pending = true
			continue
		}
		if !ready {
			pending = true
			continue
		}
		for _, c := range cities {
			if names.Slug(c.Name()) == slug {
				d, err := r.detail(ctx, c)
				if err != nil {
					return Resolution{}, err
				}
				res.Status = StatusFound
				res.Detail = &d
				return res, nil
			}
		}
	}

	if pending {
		res.Status = StatusLoading
	}
	return res, nil
}

// detail attaches images and news. Missing or failing supplements leave the
// lists empty.
func (r *Resolver) detail(ctx context.Context, c model.MergedCity) (model.Detail, error) {
	d := model.NewDetail(c)
	if r.supplements == nil {
		return d, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		imgs, err := r.supplements.Images(gctx, c.Name())
		if err != nil {
			zap.L().Debug("resolve: images unavailable", zap.String("city", c.Name()), zap.Error(err))
			return nil
		}
		if len(imgs) > 0 {
			d.Images = imgs
		}
		return nil
	})
	g.Go(func() error {
		news, err := r.supplements.News(gctx, c.Name())
		if err != nil {
			zap.L().Debug("resolve: news unavailable", zap.String("city", c.Name()), zap.Error(err))
			return nil
		}
		if len(news) > 0 {
			d.News = news
		}
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return model.Detail{}, err
	}
	return d, nil
}

// Comparison holds two resolutions side by side.
type Comparison struct {
	Left  Resolution `json:"left"`
	Right Resolution `json:"right"`
}

// Compare resolves two slugs concurrently.
func (r *Resolver) Compare(ctx context.Context, left, right string) (Comparison, error) {
	var cmp Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := r.Resolve(gctx, left)
		cmp.Left = res
		return eris.Wrapf(err, "resolve: compare %s", left)
	})
	g.Go(func() error {
		res, err := r.Resolve(gctx, right)
		cmp.Right = res
		return eris.Wrapf(err, "resolve: compare %s", right)
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}
	return cmp, nil
}

// CatalogProvider adapts a catalog to Provider and Supplements.
type CatalogProvider struct {
	Catalog *catalog.Catalog
}

func (p CatalogProvider) Cities(context.Context) ([]model.MergedCity, bool, error) {
	cities, ok := p.Catalog.Markers()
	return cities, ok, nil
}

func (p CatalogProvider) Images(_ context.Context, name string) ([]string, error) {
	snap, ok := p.Catalog.Snapshot()
	if !ok {
		return nil, nil
	}
	return snap.Images(name), nil
}

func (p CatalogProvider) News(_ context.Context, name string) ([]model.NewsItem, error) {
	snap, ok := p.Catalog.Snapshot()
	if !ok {
		return nil, nil
	}
	return snap.News(name), nil
}
