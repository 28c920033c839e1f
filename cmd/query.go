package main

import (
	"net/url"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/city-explorer/internal/export"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/query"
)

var (
	queryFormat string
	queryLimit  int
)

// queryFlags maps command line flags onto the query parameters understood by
// query.ParseState.
var queryFlags = map[string]string{
	"search":     "q",
	"sort":       "sort",
	"dir":        "dir",
	"pop-min":    "pop_min",
	"pop-max":    "pop_max",
	"income-min": "income_min",
	"income-max": "income_max",
	"age-min":    "age_min",
	"age-max":    "age_max",
	"university": "university",
	"employers":  "employers",
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter and sort cities",
	Long:  "Runs the query pipeline (search, range filters, university and employer filters, sort) over the merged city list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("query"); err != nil {
			return err
		}

		st, err := stateFromFlags(cmd)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(queryFormat)
		if err != nil {
			return err
		}

		c, closeSrc, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		defer closeSrc()

		cities, _ := c.Query(st)
		return export.Render(cmd.OutOrStdout(), export.Rows(limit(cities, queryLimit)), format)
	},
}

func stateFromFlags(cmd *cobra.Command) (query.State, error) {
	v := url.Values{}
	for flag, param := range queryFlags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(param, f.Value.String())
		}
	}
	return query.ParseState(v)
}

func limit(cities []model.MergedCity, n int) []model.MergedCity {
	if n > 0 && len(cities) > n {
		return cities[:n]
	}
	return cities
}

// addQueryFlags registers the filter and sort flags read by stateFromFlags.
func addQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("search", "", "case-insensitive name substring")
	f.String("sort", string(query.SortPopulation), "sort field: population, alpha, income, age")
	f.String("dir", string(query.Desc), "sort direction: asc, desc")
	f.String("pop-min", "", "minimum population")
	f.String("pop-max", "", "maximum population")
	f.String("income-min", "", "minimum median income")
	f.String("income-max", "", "maximum median income")
	f.String("age-min", "", "minimum median age")
	f.String("age-max", "", "maximum median age")
	f.String("university", string(query.UniversityAny), "university filter: any, yes, no")
	f.String("employers", string(query.EmployerAny), "employer filter: any, 500, 100")
}

func init() {
	addQueryFlags(queryCmd)
	queryCmd.Flags().StringVarP(&queryFormat, "output", "o", "table", "output format: table, json, yaml, csv, md")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum rows (0 = all)")
	rootCmd.AddCommand(queryCmd)
}
