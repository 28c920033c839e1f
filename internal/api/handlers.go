package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/city-explorer/internal/catalog"
	"github.com/sells-group/city-explorer/internal/geo"
	"github.com/sells-group/city-explorer/internal/marker"
	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/query"
	"github.com/sells-group/city-explorer/internal/resolve"
	"github.com/sells-group/city-explorer/internal/source"
)

// Handlers serves the API endpoints.
type Handlers struct {
	catalog  *catalog.Catalog
	resolver *resolve.Resolver
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(c *catalog.Catalog, r *resolve.Resolver) *Handlers {
	return &Handlers{catalog: c, resolver: r}
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status     string             `json:"status"`
	Generation uint64             `json:"generation,omitempty"`
	Cities     int                `json:"cities"`
	LoadedAt   *time.Time         `json:"loaded_at,omitempty"`
	Problems   []source.Problem   `json:"problems,omitempty"`
	Unmatched  int                `json:"points_without_metadata"`
	Cache      catalog.CacheStats `json:"cache"`
	LastError  string             `json:"last_error,omitempty"`
}

// Health reports whether a snapshot is loaded. It answers 503 while loading
// and when the last load failed because the points dataset is unavailable.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	hs := HealthStatus{Status: "loading", Cache: h.catalog.CacheStats()}
	lastErr := h.catalog.LastError()
	if lastErr != nil {
		hs.LastError = lastErr.Error()
	}

	snap, ok := h.catalog.Snapshot()
	if !ok {
		// A missing points dataset will not fix itself on retry.
		if source.IsUnavailable(lastErr) {
			hs.Status = "unavailable"
		}
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Code:    http.StatusServiceUnavailable,
			Message: hs.Status,
			Data:    hs,
		})
		return
	}

	hs.Status = "ok"
	hs.Generation = snap.Generation
	hs.Cities = len(snap.Cities)
	hs.Problems = snap.Problems
	hs.Unmatched = len(snap.Report.PointsWithoutMetadata)
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		hs.LoadedAt = &t
	}
	Success(w, hs)
}

// Border returns the region outline as a GeoJSON FeatureCollection.
func (h *Handlers) Border(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.catalog.Snapshot()
	if !ok {
		Loading(w)
		return
	}
	if snap.Border == nil {
		NotFound(w, "border unavailable")
		return
	}
	Success(w, snap.Border)
}

// BoundsView is the map framing for the border.
type BoundsView struct {
	Bounds geo.Box `json:"bounds"`
	Padded geo.Box `json:"padded"`
	Pad    float64 `json:"pad"`
}

// Bounds returns the border bounding box and the padded map frame. The
// optional pad parameter overrides the default margin in degrees.
func (h *Handlers) Bounds(w http.ResponseWriter, r *http.Request) {
	pad := geo.DefaultPad
	if raw := r.URL.Query().Get("pad"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			BadRequest(w, fmt.Sprintf("invalid pad %q", raw))
			return
		}
		pad = v
	}

	snap, ok := h.catalog.Snapshot()
	if !ok {
		Loading(w)
		return
	}
	if snap.Border == nil {
		NotFound(w, "border unavailable")
		return
	}
	box := snap.Border.Bounds()
	Success(w, BoundsView{Bounds: box, Padded: box.Pad(pad), Pad: pad})
}

// MarkerView is one map marker.
type MarkerView struct {
	MarkerID  string  `json:"marker_id"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Score     float64 `json:"score"`
	Color     string  `json:"color"`
}

// Markers returns every point unfiltered, with stable marker identities.
func (h *Handlers) Markers(w http.ResponseWriter, _ *http.Request) {
	cities, ok := h.catalog.Markers()
	if !ok {
		Loading(w)
		return
	}
	out := make([]MarkerView, 0, len(cities))
	for _, c := range cities {
		out = append(out, MarkerView{
			MarkerID:  c.MarkerID,
			Slug:      c.Slug,
			Name:      c.Name(),
			Latitude:  c.Point.Latitude,
			Longitude: c.Point.Longitude,
			Score:     c.Point.Score,
			Color:     marker.ScoreColor(c.Point.Score),
		})
	}
	Success(w, out)
}

// CityList is the /api/cities payload.
type CityList struct {
	Count  int                `json:"count"`
	State  query.State        `json:"state"`
	Cities []model.MergedCity `json:"cities"`
}

// Cities runs the query pipeline with state parsed from the URL.
func (h *Handlers) Cities(w http.ResponseWriter, r *http.Request) {
	st, err := query.ParseState(r.URL.Query())
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	cities, ok := h.catalog.Query(st)
	if !ok {
		Loading(w)
		return
	}
	Success(w, CityList{Count: len(cities), State: st, Cities: cities})
}

// resolveSlug writes the loading/not-found responses and returns the detail
// only when found.
func (h *Handlers) resolveSlug(w http.ResponseWriter, r *http.Request) (*model.Detail, bool) {
	slug := chi.URLParam(r, "slug")
	res, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		h.resolveError(w, err)
		return nil, false
	}
	switch res.Status {
	case resolve.StatusLoading:
		Loading(w)
		return nil, false
	case resolve.StatusNotFound:
		NotFound(w, fmt.Sprintf("city %q not found", slug))
		return nil, false
	}
	return res.Detail, true
}

func (h *Handlers) resolveError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		Error(w, http.StatusServiceUnavailable, "request canceled")
		return
	}
	zap.L().Error("api: resolve failed", zap.Error(err))
	InternalError(w, "resolve failed")
}

// City returns the detail view for one slug.
func (h *Handlers) City(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.resolveSlug(w, r); ok {
		Success(w, d)
	}
}

// CityImages returns only the image URLs for one slug.
func (h *Handlers) CityImages(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.resolveSlug(w, r); ok {
		Success(w, d.Images)
	}
}

// CityNews returns only the news items for one slug.
func (h *Handlers) CityNews(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.resolveSlug(w, r); ok {
		Success(w, d.News)
	}
}

// Compare resolves two slugs side by side. Any loading side answers 503 and
// any unknown side answers 404.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	left, right := chi.URLParam(r, "left"), chi.URLParam(r, "right")
	cmp, err := h.resolver.Compare(r.Context(), left, right)
	if err != nil {
		h.resolveError(w, err)
		return
	}
	for _, res := range []resolve.Resolution{cmp.Left, cmp.Right} {
		if res.Status == resolve.StatusLoading {
			Loading(w)
			return
		}
	}
	for _, res := range []resolve.Resolution{cmp.Left, cmp.Right} {
		if res.Status == resolve.StatusNotFound {
			NotFound(w, fmt.Sprintf("city %q not found", res.Slug))
			return
		}
	}
	Success(w, cmp)
}
