package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/city-explorer/internal/source"
	"github.com/sells-group/city-explorer/internal/store"
)

var loadFrom string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Copy the dataset files into the store",
	Long:  "Reads the border, points, metadata, images and news files and replaces their contents in the configured SQLite or Postgres store. Optional files that fail to load are skipped and their stored rows are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		sc := cfg.Sources
		if sc.Kind == "store" {
			sc.Kind = "file"
		}
		if loadFrom != "" {
			sc.Kind, sc.Location = "file", loadFrom
		}
		src, err := fileSource(sc)
		if err != nil {
			return err
		}

		b, err := source.Load(ctx, src)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "load: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := saveBundle(ctx, st, b); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Loaded %d points, %d metadata records, %d images, news for %d cities\n", //nolint:errcheck
			len(b.Points), len(b.Metadata), len(b.Images), len(b.News))
		for _, p := range b.Problems {
			fmt.Fprintf(out, "  skipped %s (stored rows kept): %s\n", p.Dataset, p.Error) //nolint:errcheck
		}
		return nil
	},
}

// saveBundle replaces each stored dataset with its loaded contents. Datasets
// that failed to load keep whatever the store already holds.
func saveBundle(ctx context.Context, st store.Store, b *source.Bundle) error {
	skipped := make(map[string]bool, len(b.Problems))
	for _, p := range b.Problems {
		skipped[p.Dataset] = true
	}

	if err := st.ReplacePoints(ctx, b.Points); err != nil {
		return err
	}
	if !skipped["metadata"] {
		if err := st.ReplaceMetadata(ctx, b.Metadata); err != nil {
			return err
		}
	}
	if !skipped["images"] {
		if err := st.ReplaceImages(ctx, b.Images); err != nil {
			return err
		}
	}
	if !skipped["news"] {
		if err := st.ReplaceNews(ctx, b.News); err != nil {
			return err
		}
	}
	if b.Border != nil {
		if err := st.SaveBorder(ctx, b.Border); err != nil {
			return err
		}
	}
	zap.L().Info("load: store updated",
		zap.String("driver", cfg.Store.Driver),
		zap.Int("points", len(b.Points)),
		zap.Int("problems", len(b.Problems)),
	)
	return nil
}

func init() {
	loadCmd.Flags().StringVar(&loadFrom, "from", "", "directory holding the dataset files (default sources.location)")
	rootCmd.AddCommand(loadCmd)
}
