// Package check reports data-quality problems in a loaded dataset bundle.
package check

import (
	"sort"
	"strings"

	"github.com/sells-group/city-explorer/internal/marker"
	"github.com/sells-group/city-explorer/internal/merge"
	"github.com/sells-group/city-explorer/internal/names"
	"github.com/sells-group/city-explorer/internal/source"
)

// Kind names a class of finding.
type Kind string

const (
	DuplicatePoint       Kind = "duplicate_point"
	DuplicateMetadata    Kind = "duplicate_metadata"
	SlugCollision        Kind = "slug_collision"
	SharedCoordinate     Kind = "shared_coordinate"
	PointWithoutMetadata Kind = "point_without_metadata"
	MetadataWithoutPoint Kind = "metadata_without_point"
	OutsideBorder        Kind = "outside_border"
	DatasetProblem       Kind = "dataset_problem"
)

// Finding is one reported problem.
type Finding struct {
	Kind   Kind     `json:"kind"`
	Key    string   `json:"key"`
	Names  []string `json:"names"`
	Detail string   `json:"detail,omitempty"`
}

// Run inspects b. Findings are grouped by kind in declaration order and
// sorted by key within each kind.
func Run(b *source.Bundle) []Finding {
	var out []Finding

	pointNames := make([]string, len(b.Points))
	for i, p := range b.Points {
		pointNames[i] = p.Name
	}
	metaNames := make([]string, len(b.Metadata))
	for i, m := range b.Metadata {
		metaNames[i] = m.City
	}

	out = append(out, groups(DuplicatePoint, pointNames, strings.TrimSpace, "")...)
	out = append(out, groups(DuplicateMetadata, metaNames, names.Key, "last record wins")...)
	out = append(out, slugCollisions(pointNames)...)

	coords := make(map[string][]string)
	for _, p := range b.Points {
		k := marker.CoordKey(p.Latitude, p.Longitude)
		coords[k] = append(coords[k], p.Name)
	}
	out = append(out, fromMap(SharedCoordinate, coords, "marker ids get -n suffixes")...)

	r := merge.Unmatched(b.Points, b.Metadata)
	for _, n := range sorted(r.PointsWithoutMetadata) {
		out = append(out, Finding{Kind: PointWithoutMetadata, Key: names.Key(n), Names: []string{n}})
	}
	for _, n := range sorted(r.MetadataWithoutPoint) {
		out = append(out, Finding{Kind: MetadataWithoutPoint, Key: names.Key(n), Names: []string{n}})
	}

	if b.Border != nil {
		var outside []Finding
		for _, p := range b.Points {
			if !b.Border.Contains(p.Latitude, p.Longitude) {
				outside = append(outside, Finding{
					Kind:   OutsideBorder,
					Key:    marker.CoordKey(p.Latitude, p.Longitude),
					Names:  []string{p.Name},
					Detail: "point lies outside the region border",
				})
			}
		}
		sort.SliceStable(outside, func(i, j int) bool { return outside[i].Key < outside[j].Key })
		out = append(out, outside...)
	}

	for _, p := range b.Problems {
		out = append(out, Finding{Kind: DatasetProblem, Key: p.Dataset, Detail: p.Error})
	}
	return out
}

// groups reports every key shared by two or more names.
func groups(kind Kind, list []string, key func(string) string, detail string) []Finding {
	m := make(map[string][]string)
	for _, n := range list {
		k := key(n)
		m[k] = append(m[k], n)
	}
	return fromMap(kind, m, detail)
}

// slugCollisions reports differently spelled names that render to the same
// slug. Only the first such city is reachable by slug.
func slugCollisions(list []string) []Finding {
	bySlug := make(map[string][]string)
	seen := make(map[string]bool)
	for _, n := range list {
		n = strings.TrimSpace(n)
		if seen[n] {
			continue
		}
		seen[n] = true
		s := names.Slug(n)
		bySlug[s] = append(bySlug[s], n)
	}
	return fromMap(SlugCollision, bySlug, "only the first listed city resolves")
}

func fromMap(kind Kind, m map[string][]string, detail string) []Finding {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if len(v) >= 2 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]Finding, 0, len(keys))
	for _, k := range keys {
		out = append(out, Finding{Kind: kind, Key: k, Names: m[k], Detail: detail})
	}
	return out
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
