// Package export renders query results for the command line and writes
// spreadsheet exports.
package export

import (
	"github.com/sells-group/city-explorer/internal/model"
)

// Row is the flattened view of one city used by every output format.
type Row struct {
	Rank           int      `json:"rank" yaml:"rank"`
	Name           string   `json:"name" yaml:"name"`
	Slug           string   `json:"slug" yaml:"slug"`
	County         string   `json:"county,omitempty" yaml:"county,omitempty"`
	Population     *int     `json:"population,omitempty" yaml:"population,omitempty"`
	MedianIncome   *float64 `json:"median_income,omitempty" yaml:"median_income,omitempty"`
	MedianAge      *float64 `json:"median_age,omitempty" yaml:"median_age,omitempty"`
	Universities   int      `json:"universities" yaml:"universities"`
	LargeEmployers int      `json:"large_employers" yaml:"large_employers"`
	Employers      int      `json:"employers" yaml:"employers"`
	Score          float64  `json:"score" yaml:"score"`
	Latitude       float64  `json:"latitude" yaml:"latitude"`
	Longitude      float64  `json:"longitude" yaml:"longitude"`
	MarkerID       string   `json:"marker_id" yaml:"marker_id"`
}

// Rows flattens cities in order. Rank starts at 1.
func Rows(cities []model.MergedCity) []Row {
	out := make([]Row, 0, len(cities))
	for i, c := range cities {
		r := Row{
			Rank:      i + 1,
			Name:      c.Name(),
			Slug:      c.Slug,
			Score:     c.Point.Score,
			Latitude:  c.Point.Latitude,
			Longitude: c.Point.Longitude,
			MarkerID:  c.MarkerID,
		}
		if m := c.Metadata; m != nil {
			r.County = m.County
			r.Population = m.Population
			r.MedianIncome = m.MedianIncome
			r.MedianAge = m.MedianAge
			r.Universities = len(m.Universities)
			g := model.GroupBusinesses(m.Businesses)
			r.LargeEmployers = len(g.Large)
			r.Employers = g.Total()
		}
		out = append(out, r)
	}
	return out
}
