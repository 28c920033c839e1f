package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/source"
)

func ptr[T any](v T) *T { return &v }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	border, err := geo.ParseBorder(strings.NewReader(
		`{"type":"Polygon","coordinates":[[[-97.239209,43.499356],[-89.489539,43.499356],[-89.489539,49.384358],[-97.239209,49.384358],[-97.239209,43.499356]]]}`))
	require.NoError(t, err)

	snap := catalog.Build(&source.Bundle{
		Points: []model.CityPoint{
			{Name: "Minneapolis", Latitude: 44.98, Longitude: -93.27, Score: 88},
			{Name: "Saint Paul", Latitude: 44.95, Longitude: -93.09, Score: 80},
			{Name: "Albert Lea", Latitude: 43.65, Longitude: -93.37, Score: 55},
			{Name: "Zumbrota", Latitude: 44.5, Longitude: -93.0, Score: 30},
			{Name: "Twin Town", Latitude: 44.5, Longitude: -93.0, Score: 30},
		},
		Metadata: []model.CityMetadata{
			{
				City: "Minneapolis", Population: ptr(429954), MedianIncome: ptr(70099.0),
				Universities: []model.University{{Name: "University of Minnesota"}},
				Businesses:   []model.Business{{Name: "Target", EmployeeCategory: model.EmployeesLarge}},
			},
			{City: "Saint Paul", Population: ptr(311527), IsStateCapital: true, IsCountySeat: true},
			{City: "Albert Lea", Population: ptr(18492)},
			{City: "Zumbrota", Population: ptr(3505)},
		},
		Images: []model.CityImage{{City: "Minneapolis", ImageURL: "https://img.example/mpls.jpg"}},
		News: map[string][]model.NewsItem{
			"Minneapolis": {{Title: "Snow emergency", Description: "Plows out", Link: "https://news.example/1"}},
		},
		Border: border,
	}, 1)
	return catalog.NewStatic(snap, catalog.NewResultCache(16, 0))
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHealth_Ready(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var hs HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &hs))
	assert.Equal(t, "ok", hs.Status)
	assert.Equal(t, 5, hs.Cities)
	assert.Equal(t, 1, hs.Unmatched)
}

func TestHealth_Loading(t *testing.T) {
	h := NewRouter(catalog.New(nil, nil), Options{})
	rec, env := get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "loading", env.Message)
}

func TestHealth_SourceUnavailable(t *testing.T) {
	c := catalog.New(source.NewOpenerSource(source.DirOpener{Dir: t.TempDir()}, source.DefaultFiles), nil)
	require.Error(t, c.Reload(context.Background()))

	h := NewRouter(c, Options{})
	rec, env := get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", env.Message)

	var hs HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &hs))
	assert.Equal(t, "unavailable", hs.Status)
	assert.Contains(t, hs.LastError, source.DefaultFiles.Points)
}

func TestEndpoints_LoadingState(t *testing.T) {
	h := NewRouter(catalog.New(nil, nil), Options{})
	for _, path := range []string{
		"/api/border", "/api/bounds", "/api/markers", "/api/cities",
		"/api/cities/minneapolis", "/api/compare/minneapolis/saint-paul",
	} {
		rec, env := get(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "loading", env.Message, path)
	}
}

func TestCities_DefaultSortAndGate(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/cities")
	require.Equal(t, http.StatusOK, rec.Code)

	var list CityList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 4, list.Count)
	assert.Equal(t, "Minneapolis", list.Cities[0].Name())
	assert.Equal(t, "Zumbrota", list.Cities[3].Name())
}

func TestCities_AlphaFilterAndSearch(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})

	_, env := get(t, h, "/api/cities?sort=alpha&dir=asc")
	var list CityList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	var got []string
	for _, c := range list.Cities {
		got = append(got, c.Name())
	}
	assert.Equal(t, []string{"Albert Lea", "Minneapolis", "Saint Paul", "Zumbrota"}, got)

	_, env = get(t, h, "/api/cities?pop_min=1000&pop_max=20000")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Count)

	_, env = get(t, h, "/api/cities?university=yes&employers=500")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Minneapolis", list.Cities[0].Name())

	_, env = get(t, h, "/api/cities?q=SAINT")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Saint Paul", list.Cities[0].Name())
}

func TestCities_BadParams(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/cities?sort=elevation")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, env.Code)

	rec, _ = get(t, h, "/api/cities?pop_min=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = get(t, h, "/api/cities?pop_min=NaN")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "pop_min")
}

func TestMarkers_DedupedIdentities(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/markers")
	require.Equal(t, http.StatusOK, rec.Code)

	var markers []MarkerView
	require.NoError(t, json.Unmarshal(env.Data, &markers))
	require.Len(t, markers, 5)
	assert.Equal(t, "44.5,-93.0", markers[3].MarkerID)
	assert.Equal(t, "44.5,-93.0-2", markers[4].MarkerID)
	assert.Equal(t, "twin-town", markers[4].Slug)
	assert.True(t, strings.HasPrefix(markers[0].Color, "hsl("))
}

func TestCity_FoundWithSupplements(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/cities/minneapolis")
	require.Equal(t, http.StatusOK, rec.Code)

	var d model.Detail
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "Minneapolis", d.City.Name())
	assert.Equal(t, []string{"https://img.example/mpls.jpg"}, d.Images)
	require.Len(t, d.News, 1)
	assert.Len(t, d.Employers.Large, 1)
}

func TestCity_WithoutSupplements(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/cities/saint-paul")
	require.Equal(t, http.StatusOK, rec.Code)

	var d model.Detail
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Empty(t, d.Images)
	assert.Empty(t, d.News)
	require.NotNil(t, d.City.Metadata)
	assert.True(t, d.City.Metadata.IsStateCapital)
}

func TestCity_NotFound(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/cities/nonexistent-town")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.Message, "nonexistent-town")
}

func TestCityImagesAndNews(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})

	rec, env := get(t, h, "/api/cities/minneapolis/images")
	require.Equal(t, http.StatusOK, rec.Code)
	var imgs []string
	require.NoError(t, json.Unmarshal(env.Data, &imgs))
	assert.Len(t, imgs, 1)

	rec, env = get(t, h, "/api/cities/albert-lea/news")
	require.Equal(t, http.StatusOK, rec.Code)
	var news []model.NewsItem
	require.NoError(t, json.Unmarshal(env.Data, &news))
	assert.Empty(t, news)
}

func TestCompare(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})

	rec, env := get(t, h, "/api/compare/minneapolis/saint-paul")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp struct {
		Left  struct{ Status string } `json:"left"`
		Right struct{ Status string } `json:"right"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cmp))
	assert.Equal(t, "found", cmp.Left.Status)
	assert.Equal(t, "found", cmp.Right.Status)

	rec, env = get(t, h, "/api/compare/minneapolis/atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.Message, "atlantis")
}

func TestBorderAndBounds(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})

	rec, env := get(t, h, "/api/border")
	require.Equal(t, http.StatusOK, rec.Code)
	var fc map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])

	rec, env = get(t, h, "/api/bounds")
	require.Equal(t, http.StatusOK, rec.Code)
	var bv BoundsView
	require.NoError(t, json.Unmarshal(env.Data, &bv))
	assert.InDelta(t, 43.399356, bv.Padded.South, 1e-9)
	assert.InDelta(t, -89.389539, bv.Padded.East, 1e-9)

	rec, _ = get(t, h, "/api/bounds?pad=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBorder_Missing(t *testing.T) {
	snap := catalog.Build(&source.Bundle{Points: []model.CityPoint{{Name: "Ely"}}}, 1)
	h := NewRouter(catalog.NewStatic(snap, nil), Options{})

	rec, _ := get(t, h, "/api/border")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{})
	rec, env := get(t, h, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", env.Message)
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(testCatalog(t), Options{AllowedOrigins: []string{"http://localhost:5173"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/cities", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
