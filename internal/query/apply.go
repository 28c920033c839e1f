// Package query implements the filter, search and sort pipeline over merged
// city records.
package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/city-explorer/internal/model"
)

// Apply runs the fixed pipeline over cities and returns a new slice:
//
//  1. drop cities without population data
//  2. population, income and age ranges (inclusive)
//  3. has-university filter
//  4. employer size filter
//  5. case-insensitive name search
//  6. stable sort by the selected field and direction
//
// The input is never mutated. Applying the same state to the output returns
// the output unchanged.
func Apply(cities []model.MergedCity, s State) []model.MergedCity {
	needle := strings.ToLower(strings.TrimSpace(s.Search))

	out := make([]model.MergedCity, 0, len(cities))
	for _, c := range cities {
		if !keep(c, s, needle) {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, comparator(s.SortField, s.Direction))
	return out
}

func keep(c model.MergedCity, s State, needle string) bool {
	m := c.Metadata
	if m == nil || m.Population == nil {
		return false
	}

	if !s.Population.Contains(float64(*m.Population)) {
		return false
	}
	if s.Income.Set() && (m.MedianIncome == nil || !s.Income.Contains(*m.MedianIncome)) {
		return false
	}
	if s.Age.Set() && (m.MedianAge == nil || !s.Age.Contains(*m.MedianAge)) {
		return false
	}

	switch s.University {
	case UniversityYes:
		if !m.HasUniversity() {
			return false
		}
	case UniversityNo:
		if m.HasUniversity() {
			return false
		}
	}

	switch s.Employers {
	case EmployerLarge:
		if !m.HasEmployer(model.EmployeesLarge) {
			return false
		}
	case EmployerMedium:
		if !m.HasEmployer(model.EmployeesMedium) {
			return false
		}
	}

	if needle != "" && !strings.Contains(strings.ToLower(c.Name()), needle) {
		return false
	}
	return true
}

// comparator returns the ordering for a sort field. Descending order negates
// the comparison rather than reversing the slice, so equal keys always keep
// their prior relative order.
func comparator(field SortField, dir Direction) func(a, b model.MergedCity) int {
	var asc func(a, b model.MergedCity) int
	switch field {
	case SortAlpha:
		col := collate.New(language.English)
		asc = func(a, b model.MergedCity) int {
			return col.CompareString(a.Name(), b.Name())
		}
	case SortIncome:
		asc = func(a, b model.MergedCity) int { return cmp.Compare(a.IncomeValue(), b.IncomeValue()) }
	case SortAge:
		asc = func(a, b model.MergedCity) int { return cmp.Compare(a.AgeValue(), b.AgeValue()) }
	default:
		asc = func(a, b model.MergedCity) int { return cmp.Compare(a.PopulationValue(), b.PopulationValue()) }
	}

	if dir == Desc {
		return func(a, b model.MergedCity) int { return asc(b, a) }
	}
	return asc
}
