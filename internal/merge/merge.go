// Package merge joins geographic city points with their demographic metadata.
package merge

import (
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/names"
)

// Merge returns one MergedCity per point, in point order. Metadata is joined on
// names.Key of the display name; when several metadata records share a key the
// last one wins. Points without metadata keep a nil Metadata.
func Merge(points []model.CityPoint, metas []model.CityMetadata) []model.MergedCity {
	lookup := Index(metas)

	out := make([]model.MergedCity, 0, len(points))
	for _, p := range points {
		mc := model.MergedCity{
			Point: p,
			Slug:  names.Slug(p.Name),
		}
		if m, ok := lookup[names.Key(p.Name)]; ok {
			mc.Metadata = m
		}
		out = append(out, mc)
	}
	return out
}

// Index builds the metadata lookup keyed by names.Key. Later records replace
// earlier ones with the same key.
func Index(metas []model.CityMetadata) map[string]*model.CityMetadata {
	lookup := make(map[string]*model.CityMetadata, len(metas))
	for i := range metas {
		lookup[names.Key(metas[i].City)] = &metas[i]
	}
	return lookup
}

// Report lists the join mismatches between two sources.
type Report struct {
	PointsWithoutMetadata []string `json:"points_without_metadata"`
	MetadataWithoutPoint  []string `json:"metadata_without_point"`
}

// Unmatched reports points that found no metadata and metadata records that
// no point joined to.
func Unmatched(points []model.CityPoint, metas []model.CityMetadata) Report {
	lookup := Index(metas)
	used := make(map[string]bool, len(points))

	r := Report{
		PointsWithoutMetadata: []string{},
		MetadataWithoutPoint:  []string{},
	}
	for _, p := range points {
		k := names.Key(p.Name)
		if _, ok := lookup[k]; ok {
			used[k] = true
			continue
		}
		r.PointsWithoutMetadata = append(r.PointsWithoutMetadata, p.Name)
	}
	for _, m := range metas {
		if !used[names.Key(m.City)] {
			r.MetadataWithoutPoint = append(r.MetadataWithoutPoint, m.City)
		}
	}
	return r
}
