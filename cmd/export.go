package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/city-explorer/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write query results to an XLSX workbook",
	Long:  "Runs the same filters and sort as query and writes the result, plus every listed employer, to an XLSX workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if exportOut == "" {
			return eris.New("export: --out is required")
		}
		st, err := stateFromFlags(cmd)
		if err != nil {
			return err
		}

		c, closeSrc, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		defer closeSrc()
		cities, _ := c.Query(st)

		f, err := os.Create(exportOut)
		if err != nil {
			return eris.Wrap(err, "export: create output")
		}
		if err := export.WriteXLSX(f, cities); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "export: close output")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cities to %s\n", len(cities), exportOut) //nolint:errcheck
		return nil
	},
}

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output .xlsx path")
	rootCmd.AddCommand(exportCmd)
}
