package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// MinnesotaFIPS is the Census state code for Minnesota.
const MinnesotaFIPS = "27"

// stateFields lists the attribute names Census products use for the state code.
var stateFields = []string{"STATE", "STATEFP"}

// ExtractStateGeoJSON selects the features of one state from a Census states
// FeatureCollection by FIPS code.
func ExtractStateGeoJSON(r io.Reader, fips string) (*Border, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode states collection")
	}

	var matched []*geojson.Feature
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if stateCode(f.Properties) == fips {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return nil, eris.Errorf("geo: no feature with state code %s", fips)
	}
	return NewBorder(matched)
}

func stateCode(props map[string]interface{}) string {
	for _, key := range stateFields {
		if v, ok := props[key]; ok {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

// ExtractStateShapefile reads a Census states shapefile and returns the
// outline of one state by FIPS code.
func ExtractStateShapefile(path, fips string) (*Border, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idx := -1
	for _, name := range stateFields {
		if idx = fieldIndex(reader, name); idx >= 0 {
			break
		}
	}
	if idx < 0 {
		return nil, eris.New("geo: shapefile has no STATE or STATEFP field")
	}
	nameIdx := fieldIndex(reader, "NAME")

	var matched []*geojson.Feature
	for reader.Next() {
		_, shape := reader.Shape()
		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		if code != fips {
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			continue
		}

		props := map[string]interface{}{"STATE": code}
		if nameIdx >= 0 {
			props["NAME"] = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}
		matched = append(matched, &geojson.Feature{Geometry: g, Properties: props})
	}

	if len(matched) == 0 {
		return nil, eris.Errorf("geo: no shape with state code %s in %s", fips, path)
	}
	return NewBorder(matched)
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile outer rings wind clockwise and holes counter-clockwise; each hole
// is attached to the outer ring that contains it. A shape with no clockwise
// ring is treated as all outer rings.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var rings []*geom.LinearRing
	var clockwise []bool
	anyOuter := false
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			zap.L().Debug("geo: skipping degenerate polygon ring", zap.Int32("part", i))
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		cw := signedArea(flat) < 0
		anyOuter = anyOuter || cw
		rings = append(rings, geom.NewLinearRingFlat(geom.XY, flat))
		clockwise = append(clockwise, cw)
	}

	var polys []*geom.Polygon
	var holes []*geom.LinearRing
	for i, r := range rings {
		if clockwise[i] || !anyOuter {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(r); err != nil {
				zap.L().Debug("geo: skipping malformed polygon ring", zap.Int("ring", i), zap.Error(err))
				continue
			}
			polys = append(polys, poly)
			continue
		}
		holes = append(holes, r)
	}

	for _, h := range holes {
		x, y := h.FlatCoords()[0], h.FlatCoords()[1]
		for _, poly := range polys {
			if !ringContains(poly.LinearRing(0), x, y) {
				continue
			}
			if err := poly.Push(h); err != nil {
				zap.L().Debug("geo: skipping malformed polygon hole", zap.Error(err))
			}
			break
		}
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace area of a closed XY ring; negative when the ring
// winds clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
