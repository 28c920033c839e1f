// Package geo loads the region outline drawn behind the city markers and
// answers simple spatial questions about it.
package geo

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// DefaultPad is the margin in degrees added around the border bounds when
// framing the map.
const DefaultPad = 0.1

// Box is a latitude/longitude bounding box.
type Box struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Pad returns the box grown by pad degrees on every side.
func (b Box) Pad(pad float64) Box {
	return Box{
		South: b.South - pad,
		West:  b.West - pad,
		North: b.North + pad,
		East:  b.East + pad,
	}
}

// Border is a region outline as a GeoJSON feature collection.
type Border struct {
	collection *geojson.FeatureCollection
	bounds     *geom.Bounds
}

// NewBorder wraps features as a Border. It fails when no feature carries a
// geometry.
func NewBorder(features []*geojson.Feature) (*Border, error) {
	b := &Border{
		collection: &geojson.FeatureCollection{Features: features},
		bounds:     geom.NewBounds(geom.XY),
	}
	var n int
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		b.bounds.Extend(f.Geometry)
		n++
	}
	if n == 0 {
		return nil, eris.New("geo: border has no geometry")
	}
	return b, nil
}

// ParseBorder decodes a GeoJSON FeatureCollection, Feature or bare geometry.
func ParseBorder(r io.Reader) (*Border, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read border")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "geo: decode border")
	}

	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature collection")
		}
		return NewBorder(fc.Features)
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature")
		}
		return NewBorder([]*geojson.Feature{&f})
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrapf(err, "geo: decode geometry of type %q", head.Type)
		}
		return NewBorder([]*geojson.Feature{{Geometry: g}})
	}
}

// Features returns the border features.
func (b *Border) Features() []*geojson.Feature {
	return b.collection.Features
}

// Bounds returns the bounding box of all border geometry.
func (b *Border) Bounds() Box {
	return Box{
		South: b.bounds.Min(1),
		West:  b.bounds.Min(0),
		North: b.bounds.Max(1),
		East:  b.bounds.Max(0),
	}
}

// MarshalJSON encodes the border as a GeoJSON FeatureCollection.
func (b *Border) MarshalJSON() ([]byte, error) {
	return b.collection.MarshalJSON()
}

// Contains reports whether the point lies inside any border polygon. Points
// exactly on an edge may report either way.
func (b *Border) Contains(lat, lon float64) bool {
	for _, f := range b.collection.Features {
		if f == nil {
			continue
		}
		if geometryContains(f.Geometry, lon, lat) {
			return true
		}
	}
	return false
}

func geometryContains(g geom.T, x, y float64) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), x, y) {
				return true
			}
		}
	case *geom.GeometryCollection:
		for _, sub := range t.Geoms() {
			if geometryContains(sub, x, y) {
				return true
			}
		}
	}
	return false
}

// polygonContains tests the exterior ring and excludes holes.
func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !ringContains(p.LinearRing(0), x, y) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if ringContains(p.LinearRing(i), x, y) {
			return false
		}
	}
	return true
}

// ringContains is the even-odd ray casting test.
func ringContains(r *geom.LinearRing, x, y float64) bool {
	flat := r.FlatCoords()
	stride := r.Stride()
	n := len(flat) / stride
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := flat[i*stride], flat[i*stride+1]
		xj, yj := flat[j*stride], flat[j*stride+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
