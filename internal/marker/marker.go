// Package marker assigns stable map identities to city markers.
package marker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/city-explorer/internal/model"
)

// CoordKey formats a coordinate pair as "{lat},{lon}". Whole numbers keep one
// fractional digit, so (44.5, -93) becomes "44.5,-93.0".
func CoordKey(lat, lon float64) string {
	return formatCoord(lat) + "," + formatCoord(lon)
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Assign returns a copy of cities with MarkerID set. The first city at a
// coordinate gets the bare coordinate key; the n-th city at the same
// coordinate gets "{key}-{n}", starting at n = 2. Run it once per data load,
// before any filtering, so identities survive filter and sort changes.
func Assign(cities []model.MergedCity) []model.MergedCity {
	seen := make(map[string]int, len(cities))
	out := make([]model.MergedCity, len(cities))
	for i, c := range cities {
		key := CoordKey(c.Point.Latitude, c.Point.Longitude)
		seen[key]++
		if n := seen[key]; n > 1 {
			c.MarkerID = fmt.Sprintf("%s-%d", key, n)
		} else {
			c.MarkerID = key
		}
		out[i] = c
	}
	return out
}

// ScoreColor maps a city score to the marker fill colour: green at 0 shading to
// red at 120 and beyond.
func ScoreColor(score float64) string {
	hue := 120 - score
	if hue < 0 {
		hue = 0
	}
	if hue > 120 {
		hue = 120
	}
	return fmt.Sprintf("hsl(%s, 90%%, 45%%)", strconv.FormatFloat(hue, 'f', -1, 64))
}
