package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/config"
	"github.com/sells-group/city-explorer/internal/source"
	"github.com/sells-group/city-explorer/internal/store"
)

func sourceFiles(sc config.SourcesConfig) source.Files {
	files := source.DefaultFiles
	if sc.Border != "" {
		files.Border = sc.Border
	}
	if sc.Points != "" {
		files.Points = sc.Points
	}
	if sc.Metadata != "" {
		files.Metadata = sc.Metadata
	}
	if sc.Images != "" {
		files.Images = sc.Images
	}
	if sc.News != "" {
		files.News = sc.News
	}
	return files
}

// fileSource builds the file or HTTP source described by sc. It never opens
// the store.
func fileSource(sc config.SourcesConfig) (source.Source, error) {
	files := sourceFiles(sc)
	switch sc.Kind {
	case "file", "":
		return source.NewOpenerSource(source.DirOpener{Dir: sc.Location}, files), nil
	case "http":
		opener, err := source.NewHTTPOpener(sc.Location, source.HTTPOptions{
			Timeout:    time.Duration(sc.TimeoutSecs) * time.Second,
			RatePerSec: sc.RatePerSec,
		})
		if err != nil {
			return nil, err
		}
		return source.NewOpenerSource(opener, files), nil
	default:
		return nil, eris.Errorf("sources: kind %q is not a file source", sc.Kind)
	}
}

// initSource builds the configured source. The returned close func releases
// the store when the source is backed by one.
func initSource(ctx context.Context) (source.Source, func(), error) {
	if cfg.Sources.Kind == "store" {
		st, err := openStore(ctx)
		if err != nil {
			return nil, nil, eris.Wrap(err, "sources: open store")
		}
		return st, func() { _ = st.Close() }, nil
	}
	src, err := fileSource(cfg.Sources)
	if err != nil {
		return nil, nil, err
	}
	return src, func() {}, nil
}

// openStore opens the configured store and applies its schema.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// loadCatalog builds a catalog from the configured source and loads it once.
func loadCatalog(ctx context.Context) (*catalog.Catalog, func(), error) {
	src, closeFn, err := initSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	c := catalog.New(src, nil)
	if err := c.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, eris.Wrap(err, "load catalog")
	}
	return c, closeFn, nil
}
