package main

import (
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/city-explorer/internal/resolve"
)

var (
	showFormat  string
	showCompare bool
)

var showCmd = &cobra.Command{
	Use:   "show <slug> [slug...]",
	Short: "Show city details by slug",
	Long:  "Resolves each slug to a city detail with images, news and grouped employers. With --compare, exactly two slugs are resolved side by side.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if showCompare && len(args) != 2 {
			return eris.New("show: --compare needs exactly two slugs")
		}

		c, closeSrc, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		defer closeSrc()

		r := resolve.ForCatalog(c)
		out := cmd.OutOrStdout()

		if showCompare {
			cmp, err := r.Compare(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return writeDoc(out, cmp, showFormat)
		}

		s := resolve.NewSession(r)
		defer s.Close()
		var missing []string
		for _, slug := range args {
			res, err := s.Navigate(ctx, slug)
			if err != nil {
				return err
			}
			if res.Status != resolve.StatusFound {
				missing = append(missing, res.Slug)
			}
			if err := writeDoc(out, res, showFormat); err != nil {
				return err
			}
		}
		if len(missing) > 0 {
			return eris.Errorf("show: not found: %v", missing)
		}
		return nil
	},
}

func writeDoc(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "show: encode yaml")
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "show: encode json")
	default:
		return eris.Errorf("show: unknown format %q", format)
	}
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "json", "output format: json, yaml")
	showCmd.Flags().BoolVar(&showCompare, "compare", false, "resolve two slugs side by side")
	rootCmd.AddCommand(showCmd)
}
