package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format is a command line output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// ParseFormat validates a format name. Empty selects the table format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatMarkdown:
		return Format(s), nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

var header = table.Row{"#", "City", "County", "Population", "Median Income", "Median Age", "Universities", "500+ Employers", "Score"}

// Render writes rows to w in the given format.
func Render(w io.Writer, rows []Row, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rows), "export: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml encoder")
	case FormatTable, FormatCSV, FormatMarkdown, "":
		return renderTable(w, rows, format)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

func renderTable(w io.Writer, rows []Row, format Format) error {
	if len(rows) == 0 && (format == FormatTable || format == "") {
		_, err := fmt.Fprintln(w, "(0 cities)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Rank,
			r.Name,
			r.County,
			intOrDash(r.Population),
			floatOrDash(r.MedianIncome, 0),
			floatOrDash(r.MedianAge, 1),
			r.Universities,
			r.LargeEmployers,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
		})
	}

	switch format {
	case FormatCSV:
		t.RenderCSV()
	case FormatMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
		if _, err := fmt.Fprintf(w, "(%d cities)\n", len(rows)); err != nil {
			return err
		}
	}
	return nil
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatOrDash(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
