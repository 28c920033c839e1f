// Package store persists the city datasets in SQLite or PostgreSQL so the
// service can load from a database instead of static files.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/source"
)

// Store is a read/write dataset store. Its read side satisfies source.Source.
type Store interface {
	source.Source

	// Whole-dataset replacement; each call is atomic.
	ReplacePoints(ctx context.Context, points []model.CityPoint) error
	ReplaceMetadata(ctx context.Context, metas []model.CityMetadata) error
	ReplaceImages(ctx context.Context, images []model.CityImage) error
	ReplaceNews(ctx context.Context, news map[string][]model.NewsItem) error
	SaveBorder(ctx context.Context, border *geo.Border) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a Store for the configured driver. pool tunes the Postgres
// connection pool and may be nil; SQLite ignores it.
func Open(ctx context.Context, driver, dsn string, pool *PoolConfig) (Store, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		return NewPostgres(ctx, dsn, pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// borderName is the key of the single stored region outline.
const borderName = "state"

func errNoBorder() error {
	return &source.UnavailableError{Resource: "border", Err: eris.New("store: no border saved")}
}
