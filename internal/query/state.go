package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// SortField selects the value cities are ordered by.
type SortField string

const (
	SortPopulation SortField = "population"
	SortAlpha      SortField = "alpha"
	SortIncome     SortField = "income"
	SortAge        SortField = "age"
)

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// UniversityFilter constrains cities by whether they list a university.
type UniversityFilter string

const (
	UniversityAny UniversityFilter = "any"
	UniversityYes UniversityFilter = "yes"
	UniversityNo  UniversityFilter = "no"
)

// EmployerFilter constrains cities by employer size class.
type EmployerFilter string

const (
	EmployerAny    EmployerFilter = "any"
	EmployerLarge  EmployerFilter = "500"
	EmployerMedium EmployerFilter = "100"
)

// Range is an inclusive numeric bound. Nil ends impose no constraint.
type Range struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Set reports whether either bound is present.
func (r Range) Set() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v lies within the bounds.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// State holds the user-controlled view parameters. It is a plain value and is
// re-evaluated from scratch on every change.
type State struct {
	Search     string           `json:"search,omitempty" yaml:"search,omitempty"`
	SortField  SortField        `json:"sort" yaml:"sort"`
	Direction  Direction        `json:"dir" yaml:"dir"`
	Population Range            `json:"population" yaml:"population"`
	Income     Range            `json:"income" yaml:"income"`
	Age        Range            `json:"age" yaml:"age"`
	University UniversityFilter `json:"university" yaml:"university"`
	Employers  EmployerFilter   `json:"employers" yaml:"employers"`
}

// DefaultState returns the initial view: largest cities first, no filters.
func DefaultState() State {
	return State{
		SortField:  SortPopulation,
		Direction:  Desc,
		University: UniversityAny,
		Employers:  EmployerAny,
	}
}

// ParseState builds a State from URL query parameters. Unknown parameters are
// ignored; empty values leave the default in place.
//
//	q, sort, dir, pop_min, pop_max, income_min, income_max, age_min, age_max,
//	university, employers
func ParseState(v url.Values) (State, error) {
	s := DefaultState()
	s.Search = strings.TrimSpace(v.Get("q"))

	if raw := strings.ToLower(v.Get("sort")); raw != "" {
		switch SortField(raw) {
		case SortPopulation, SortAlpha, SortIncome, SortAge:
			s.SortField = SortField(raw)
		default:
			return State{}, eris.Errorf("query: invalid sort field %q", raw)
		}
	}

	if raw := strings.ToLower(v.Get("dir")); raw != "" {
		switch Direction(raw) {
		case Asc, Desc:
			s.Direction = Direction(raw)
		default:
			return State{}, eris.Errorf("query: invalid direction %q", raw)
		}
	}

	var err error
	if s.Population, err = parseRange(v, "pop"); err != nil {
		return State{}, err
	}
	if s.Income, err = parseRange(v, "income"); err != nil {
		return State{}, err
	}
	if s.Age, err = parseRange(v, "age"); err != nil {
		return State{}, err
	}

	if raw := strings.ToLower(v.Get("university")); raw != "" {
		switch UniversityFilter(raw) {
		case UniversityAny, UniversityYes, UniversityNo:
			s.University = UniversityFilter(raw)
		default:
			return State{}, eris.Errorf("query: invalid university filter %q", raw)
		}
	}

	if raw := v.Get("employers"); raw != "" {
		f, err := ParseEmployerFilter(raw)
		if err != nil {
			return State{}, err
		}
		s.Employers = f
	}

	return s, nil
}

// ParseEmployerFilter accepts "any", "500", "100" or the category labels
// "500+" and "100-499".
func ParseEmployerFilter(raw string) (EmployerFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any":
		return EmployerAny, nil
	case "500", "500+":
		return EmployerLarge, nil
	case "100", "100-499":
		return EmployerMedium, nil
	default:
		return "", eris.Errorf("query: invalid employer filter %q", raw)
	}
}

func parseRange(v url.Values, prefix string) (Range, error) {
	var r Range
	for _, bound := range []struct {
		key string
		dst **float64
	}{
		{prefix + "_min", &r.Min},
		{prefix + "_max", &r.Max},
	} {
		raw := strings.TrimSpace(v.Get(bound.key))
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Range{}, eris.Wrapf(err, "query: invalid %s", bound.key)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Range{}, eris.Errorf("query: invalid %s: %q is not a finite number", bound.key, raw)
		}
		*bound.dst = &f
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return Range{}, eris.Errorf("query: %s_min greater than %s_max", prefix, prefix)
	}
	return r, nil
}

// Key returns a canonical string for the state, suitable as a cache key.
// States that filter and sort identically produce the same key.
func (s State) Key() string {
	return fmt.Sprintf("q=%s|sort=%s|dir=%s|pop=%s|income=%s|age=%s|uni=%s|emp=%s",
		strings.ToLower(s.Search), s.SortField, s.Direction,
		s.Population.key(), s.Income.key(), s.Age.key(), s.University, s.Employers)
}

func (r Range) key() string {
	f := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'g', -1, 64)
	}
	return f(r.Min) + ".." + f(r.Max)
}
