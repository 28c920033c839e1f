package geo

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareCollection = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"STATE": "27", "NAME": "Minnesota"},
    "geometry": {
      "type": "Polygon",
      "coordinates": [[[-97.0, 43.5], [-89.5, 43.5], [-89.5, 49.0], [-97.0, 49.0], [-97.0, 43.5]]]
    }
  }, {
    "type": "Feature",
    "properties": {"STATE": "55", "NAME": "Wisconsin"},
    "geometry": {
      "type": "Polygon",
      "coordinates": [[[-92.8, 42.5], [-86.8, 42.5], [-86.8, 47.0], [-92.8, 47.0], [-92.8, 42.5]]]
    }
  }]
}`

func TestParseBorder_FeatureCollection(t *testing.T) {
	b, err := ParseBorder(strings.NewReader(squareCollection))
	require.NoError(t, err)
	assert.Len(t, b.Features(), 2)

	box := b.Bounds()
	assert.InDelta(t, 42.5, box.South, 1e-9)
	assert.InDelta(t, -97.0, box.West, 1e-9)
	assert.InDelta(t, 49.0, box.North, 1e-9)
	assert.InDelta(t, -86.8, box.East, 1e-9)
}

func TestParseBorder_BareGeometry(t *testing.T) {
	b, err := ParseBorder(strings.NewReader(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`))
	require.NoError(t, err)
	assert.True(t, b.Contains(0.5, 0.5))
	assert.False(t, b.Contains(2, 2))
}

func TestParseBorder_Invalid(t *testing.T) {
	_, err := ParseBorder(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = ParseBorder(strings.NewReader(`{"type":"FeatureCollection","features":[]}`))
	assert.Error(t, err)
}

func TestBorder_MarshalJSON(t *testing.T) {
	b, err := ParseBorder(strings.NewReader(squareCollection))
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
	assert.Len(t, decoded["features"], 2)
}

func TestBox_Pad(t *testing.T) {
	box := Box{South: 43.499356, West: -97.239209, North: 49.384358, East: -89.489539}
	padded := box.Pad(DefaultPad)
	assert.InDelta(t, 43.399356, padded.South, 1e-9)
	assert.InDelta(t, -97.339209, padded.West, 1e-9)
	assert.InDelta(t, 49.484358, padded.North, 1e-9)
	assert.InDelta(t, -89.389539, padded.East, 1e-9)
}

func TestBorder_ContainsWithHole(t *testing.T) {
	doc := `{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10],[0,0]],
		[[4,4],[6,4],[6,6],[4,6],[4,4]]
	]}`
	b, err := ParseBorder(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, b.Contains(1, 1))
	assert.False(t, b.Contains(5, 5))
}

func TestExtractStateGeoJSON(t *testing.T) {
	b, err := ExtractStateGeoJSON(strings.NewReader(squareCollection), MinnesotaFIPS)
	require.NoError(t, err)
	require.Len(t, b.Features(), 1)
	assert.Equal(t, "Minnesota", b.Features()[0].Properties["NAME"])

	// Minneapolis is inside, Milwaukee is not.
	assert.True(t, b.Contains(44.98, -93.27))
	assert.False(t, b.Contains(43.04, -87.91))
}

func TestExtractStateGeoJSON_Missing(t *testing.T) {
	_, err := ExtractStateGeoJSON(strings.NewReader(squareCollection), "06")
	assert.Error(t, err)
}

func TestExtractStateShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("NAME", 20),
	}))

	square := func(x0, y0, x1, y1 float64) *shp.Polygon {
		pts := []shp.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}
		return &shp.Polygon{Box: shp.BBoxFromPoints(pts), NumParts: 1, NumPoints: int32(len(pts)), Parts: []int32{0}, Points: pts}
	}

	row := w.Write(square(-97, 43.5, -89.5, 49))
	require.NoError(t, w.WriteAttribute(int(row), 0, "27"))
	require.NoError(t, w.WriteAttribute(int(row), 1, "Minnesota"))
	row = w.Write(square(-92.8, 42.5, -86.8, 47))
	require.NoError(t, w.WriteAttribute(int(row), 0, "55"))
	require.NoError(t, w.WriteAttribute(int(row), 1, "Wisconsin"))
	w.Close()

	b, err := ExtractStateShapefile(path, MinnesotaFIPS)
	require.NoError(t, err)
	require.Len(t, b.Features(), 1)
	assert.Equal(t, "Minnesota", b.Features()[0].Properties["NAME"])
	assert.True(t, b.Contains(46.0, -94.0))

	_, err = ExtractStateShapefile(path, "06")
	assert.Error(t, err)
}

func TestPolygonToMultiPolygon_Nil(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}

// cwRing and ccwRing return closed square rings in shapefile winding order.
func cwRing(x0, y0, x1, y1 float64) []shp.Point {
	return []shp.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}, {X: x0, Y: y0}}
}

func ccwRing(x0, y0, x1, y1 float64) []shp.Point {
	return []shp.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

func multiPart(rings ...[]shp.Point) *shp.Polygon {
	var pts []shp.Point
	var parts []int32
	for _, r := range rings {
		parts = append(parts, int32(len(pts)))
		pts = append(pts, r...)
	}
	return &shp.Polygon{
		Box:       shp.BBoxFromPoints(pts),
		NumParts:  int32(len(parts)),
		NumPoints: int32(len(pts)),
		Parts:     parts,
		Points:    pts,
	}
}

func TestPolygonToMultiPolygon_GroupsHolesByWinding(t *testing.T) {
	mp := polygonToMultiPolygon(multiPart(
		cwRing(-97, 43.5, -89.5, 49),
		cwRing(-88, 45, -87, 46),
		ccwRing(-94, 45, -93, 46),
	))
	require.NotNil(t, mp)
	require.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
	assert.Equal(t, 1, mp.Polygon(1).NumLinearRings())
}

func TestPolygonToMultiPolygon_NoClockwiseRingsAreAllOuter(t *testing.T) {
	mp := polygonToMultiPolygon(multiPart(
		ccwRing(0, 0, 1, 1),
		ccwRing(5, 5, 6, 6),
	))
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestExtractStateShapefile_HoleIsOutside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lakes.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("STATEFP", 2)}))
	row := w.Write(multiPart(
		cwRing(-97, 43.5, -89.5, 49),
		ccwRing(-94, 45, -93, 46),
	))
	require.NoError(t, w.WriteAttribute(int(row), 0, "27"))
	w.Close()

	b, err := ExtractStateShapefile(path, MinnesotaFIPS)
	require.NoError(t, err)
	assert.True(t, b.Contains(44.0, -95.0))
	assert.False(t, b.Contains(45.5, -93.5))
	assert.False(t, b.Contains(50.0, -95.0))
}
