package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/city-explorer/internal/geo"
)

var (
	borderInput   string
	borderFIPS    string
	borderOutput  string
	borderToStore bool
)

var borderCmd = &cobra.Command{
	Use:   "border",
	Short: "Extract a state outline from Census boundaries",
	Long:  "Selects one state by FIPS code from a Census states GeoJSON or shapefile and writes it as a GeoJSON FeatureCollection.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if borderInput == "" {
			return eris.New("border: --input is required")
		}

		b, err := extractBorder(borderInput, borderFIPS)
		if err != nil {
			return err
		}

		out := borderOutput
		if out == "" {
			out = filepath.Join(cfg.Sources.Location, sourceFiles(cfg.Sources).Border)
		}
		if err := writeBorder(out, b); err != nil {
			return err
		}

		box := b.Bounds()
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d features, S %.4f W %.4f N %.4f E %.4f)\n", //nolint:errcheck
			out, len(b.Features()), box.South, box.West, box.North, box.East)

		if borderToStore {
			st, err := openStore(cmd.Context())
			if err != nil {
				return eris.Wrap(err, "border: open store")
			}
			defer st.Close() //nolint:errcheck
			if err := st.SaveBorder(cmd.Context(), b); err != nil {
				return err
			}
			zap.L().Info("border: saved to store", zap.String("driver", cfg.Store.Driver))
		}
		return nil
	},
}

func extractBorder(path, fips string) (*geo.Border, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return geo.ExtractStateShapefile(path, fips)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "border: open input")
	}
	defer f.Close() //nolint:errcheck
	return geo.ExtractStateGeoJSON(f, fips)
}

func writeBorder(path string, b *geo.Border) error {
	data, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "border: encode")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "border: write output")
	}
	return nil
}

func init() {
	borderCmd.Flags().StringVar(&borderInput, "input", "", "Census states GeoJSON or .shp file")
	borderCmd.Flags().StringVar(&borderFIPS, "fips", geo.MinnesotaFIPS, "state FIPS code")
	borderCmd.Flags().StringVar(&borderOutput, "out", "", "output path (default sources.location/sources.border)")
	borderCmd.Flags().BoolVar(&borderToStore, "store", false, "also save the outline to the configured store")
	rootCmd.AddCommand(borderCmd)
}
