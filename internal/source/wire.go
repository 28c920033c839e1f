package source

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/city-explorer/internal/model"
	"github.com/sells-group/city-explorer/internal/names"
)

// NewsLinkBase is prepended to site-relative news links.
const NewsLinkBase = "https://www.fox9.com"

// coordinate accepts a JSON number or a decimal/DMS string.
type coordinate struct {
	value float64
	set   bool
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := names.ParseCoordinate(s)
		if err != nil {
			return err
		}
		c.value, c.set = v, true
		return nil
	}
	if err := json.Unmarshal(data, &c.value); err != nil {
		return err
	}
	c.set = true
	return nil
}

// wirePoint covers both the long and the compact point shapes.
type wirePoint struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	N         string     `json:"n"`
	Latitude  coordinate `json:"latitude"`
	Lat       coordinate `json:"lat"`
	Longitude coordinate `json:"longitude"`
	Lon       coordinate `json:"lon"`
	Score     *float64   `json:"score"`
	S         *float64   `json:"s"`
}

func (w wirePoint) point() (model.CityPoint, error) {
	name := w.Name
	if name == "" {
		name = w.N
	}
	name, _, _ = names.Clean(name)
	if name == "" {
		return model.CityPoint{}, eris.New("source: point without name")
	}

	lat, lon := w.Latitude, w.Longitude
	if !lat.set {
		lat = w.Lat
	}
	if !lon.set {
		lon = w.Lon
	}
	if !lat.set || !lon.set {
		return model.CityPoint{}, eris.Errorf("source: point %q missing coordinates", name)
	}

	p := model.CityPoint{
		ID:        w.ID,
		Name:      name,
		Latitude:  lat.value,
		Longitude: lon.value,
	}
	if p.ID == "" {
		p.ID = names.Key(name)
	}
	switch {
	case w.Score != nil:
		p.Score = *w.Score
	case w.S != nil:
		p.Score = *w.S
	}
	return p, nil
}

// DecodePoints reads a JSON array of city points in either the long
// {name, latitude, longitude, score} or compact {id, n, lat, lon, s} shape.
func DecodePoints(r io.Reader) ([]model.CityPoint, error) {
	var raw []wirePoint
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "source: decode points")
	}
	out := make([]model.CityPoint, 0, len(raw))
	for i, w := range raw {
		p, err := w.point()
		if err != nil {
			return nil, eris.Wrapf(err, "source: point %d", i)
		}
		out = append(out, p)
	}
	return out, nil
}

// DecodeMetadata reads city metadata given either as a bare array or wrapped
// as {"cities": [...]}. Dagger marks on city names are stripped and recorded
// as the county seat and state capital flags.
func DecodeMetadata(r io.Reader) ([]model.CityMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "source: read metadata")
	}
	data = bytes.TrimSpace(data)

	var metas []model.CityMetadata
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &metas); err != nil {
			return nil, eris.Wrap(err, "source: decode metadata list")
		}
	case len(data) > 0 && data[0] == '{':
		var wrapped struct {
			Cities []model.CityMetadata `json:"cities"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, eris.Wrap(err, "source: decode metadata object")
		}
		metas = wrapped.Cities
	default:
		return nil, eris.New("source: metadata is neither a list nor an object")
	}

	for i := range metas {
		name, seat, capital := names.Clean(metas[i].City)
		metas[i].City = name
		metas[i].IsCountySeat = metas[i].IsCountySeat || seat
		metas[i].IsStateCapital = metas[i].IsStateCapital || capital
	}
	return metas, nil
}

// DecodeImages reads a JSON array of {city, image_url} records. Records
// without a URL are dropped.
func DecodeImages(r io.Reader) ([]model.CityImage, error) {
	var raw []model.CityImage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "source: decode images")
	}
	out := raw[:0]
	for _, img := range raw {
		if strings.TrimSpace(img.ImageURL) == "" {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

// DecodeNews reads a JSON object mapping city name to news items.
// Site-relative links are made absolute against NewsLinkBase.
func DecodeNews(r io.Reader) (map[string][]model.NewsItem, error) {
	var raw map[string][]model.NewsItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "source: decode news")
	}
	if raw == nil {
		raw = map[string][]model.NewsItem{}
	}
	for city, items := range raw {
		for i := range items {
			items[i].Link = AbsoluteNewsLink(items[i].Link)
		}
		raw[city] = items
	}
	return raw, nil
}

// AbsoluteNewsLink resolves a site-relative news link.
func AbsoluteNewsLink(link string) string {
	switch {
	case link == "":
		return link
	case strings.HasPrefix(link, "/"):
		return NewsLinkBase + link
	case strings.HasPrefix(link, "news/"):
		return NewsLinkBase + "/" + link
	default:
		return link
	}
}
