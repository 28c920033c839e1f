package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/city-explorer/internal/check"
	"github.com/sells-group/city-explorer/internal/source"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report data-quality problems in the datasets",
	Long:  "Loads the configured datasets and lists duplicate names, slug collisions, shared coordinates, unmatched joins and points outside the border.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, closeSrc, err := initSource(ctx)
		if err != nil {
			return err
		}
		defer closeSrc()

		b, err := source.Load(ctx, src)
		if err != nil {
			return err
		}

		findings := check.Run(b)
		out := cmd.OutOrStdout()
		if len(findings) == 0 {
			fmt.Fprintln(out, "No problems found") //nolint:errcheck
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Kind", "Key", "Names", "Detail"})
		for _, f := range findings {
			t.AppendRow(table.Row{f.Kind, f.Key, strings.Join(f.Names, "; "), f.Detail})
		}
		t.Render()
		fmt.Fprintf(out, "(%d findings)\n", len(findings)) //nolint:errcheck

		if checkStrict {
			return eris.Errorf("check: %d findings", len(findings))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit non-zero when any finding is reported")
	rootCmd.AddCommand(checkCmd)
}
