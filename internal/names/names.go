// Package names derives the identifiers used to join and address cities:
// URL slugs, merge keys, and cleaned display names.
package names

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold strips combining marks so "Mañana" and "Manana" share a slug.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Slug returns the URL-safe identifier for a display name: lowercase, runs of
// non-alphanumeric characters collapsed to one hyphen, no leading or trailing
// hyphen.
func Slug(name string) string {
	lower := strings.ToLower(fold(name))

	var sb strings.Builder
	sb.Grow(len(lower))
	pendingHyphen := false
	for _, r := range lower {
		if !isAlnum(r) {
			pendingHyphen = sb.Len() > 0
			continue
		}
		if pendingHyphen {
			sb.WriteByte('-')
			pendingHyphen = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Key returns the join key for a display name: lowercase with every
// non-alphanumeric character removed. It uses the same character rules as
// Slug, so Key(a) == strings.ReplaceAll(Slug(a), "-", "").
func Key(name string) string {
	lower := strings.ToLower(fold(name))

	var sb strings.Builder
	sb.Grow(len(lower))
	for _, r := range lower {
		if isAlnum(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Marks carried by city names in the source lists.
const (
	countySeatMark   = "†"
	stateCapitalMark = "††"
)

// Clean strips county-seat and state-capital dagger marks from a raw name.
// A state capital is also reported as a county seat.
func Clean(raw string) (name string, countySeat, stateCapital bool) {
	name = strings.TrimSpace(raw)
	switch {
	case strings.HasSuffix(name, stateCapitalMark):
		name = strings.TrimSuffix(name, stateCapitalMark)
		countySeat, stateCapital = true, true
	case strings.HasSuffix(name, countySeatMark):
		name = strings.TrimSuffix(name, countySeatMark)
		countySeat = true
	}
	return strings.TrimSpace(name), countySeat, stateCapital
}

var dmsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)[°\s]*(?:(\d+(?:\.\d+)?)[′'\s]*)?(?:(\d+(?:\.\d+)?)[″"\s]*)?([NSEW])`)

// ParseCoordinate parses a decimal degree string ("44.95") or a
// degrees-minutes-seconds string ("44°57′N") into decimal degrees rounded to
// six places. South and west hemispheres are negative.
func ParseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u202f", " "))
	if s == "" {
		return 0, eris.New("names: empty coordinate")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}

	m := dmsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, eris.Errorf("names: cannot parse coordinate %q", s)
	}

	deg, _ := strconv.ParseFloat(m[1], 64)
	var minutes, seconds float64
	if m[2] != "" {
		minutes, _ = strconv.ParseFloat(m[2], 64)
	}
	if m[3] != "" {
		seconds, _ = strconv.ParseFloat(m[3], 64)
	}

	dec := deg + minutes/60 + seconds/3600
	if m[4] == "S" || m[4] == "W" {
		dec = -dec
	}
	return math.Round(dec*1e6) / 1e6, nil
}
