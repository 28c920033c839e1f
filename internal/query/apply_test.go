package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/city-explorer/internal/model"
)

func ptr[T any](v T) *T { return &v }

func city(name string, pop int) model.MergedCity {
	return model.MergedCity{
		Point:    model.CityPoint{Name: name},
		Metadata: &model.CityMetadata{City: name, Population: ptr(pop)},
	}
}

func namesOf(cs []model.MergedCity) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

func populations(cs []model.MergedCity) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, *c.Metadata.Population)
	}
	return out
}

func TestApply_PopulationRangeInclusive(t *testing.T) {
	cities := []model.MergedCity{
		city("A", 500), city("B", 1000), city("C", 3000), city("D", 5000), city("E", 9000),
	}
	s := DefaultState()
	s.SortField = SortPopulation
	s.Direction = Asc
	s.Population = Range{Min: ptr(1000.0), Max: ptr(5000.0)}

	got := Apply(cities, s)
	assert.Equal(t, []int{1000, 3000, 5000}, populations(got))
}

func TestApply_AlphaAscending(t *testing.T) {
	cities := []model.MergedCity{city("Saint Paul", 1), city("Albert Lea", 2), city("Zumbrota", 3)}
	s := DefaultState()
	s.SortField = SortAlpha
	s.Direction = Asc

	assert.Equal(t, []string{"Albert Lea", "Saint Paul", "Zumbrota"}, namesOf(Apply(cities, s)))
}

func TestApply_AlphaDescending(t *testing.T) {
	cities := []model.MergedCity{city("Saint Paul", 1), city("Albert Lea", 2), city("Zumbrota", 3)}
	s := DefaultState()
	s.SortField = SortAlpha
	s.Direction = Desc

	assert.Equal(t, []string{"Zumbrota", "Saint Paul", "Albert Lea"}, namesOf(Apply(cities, s)))
}

func TestApply_AlphaIgnoresCaseAndAccents(t *testing.T) {
	cities := []model.MergedCity{city("Zed", 1), city("abc", 2), city("Édina", 3), city("Bcd", 4)}
	s := DefaultState()
	s.SortField = SortAlpha
	s.Direction = Asc

	assert.Equal(t, []string{"abc", "Bcd", "Édina", "Zed"}, namesOf(Apply(cities, s)))
}

func TestApply_PopulationGate(t *testing.T) {
	noMeta := model.MergedCity{Point: model.CityPoint{Name: "Nowhere"}}
	noPop := model.MergedCity{
		Point:    model.CityPoint{Name: "Blank"},
		Metadata: &model.CityMetadata{City: "Blank"},
	}
	cities := []model.MergedCity{noMeta, noPop, city("Ely", 3400)}

	got := Apply(cities, DefaultState())
	assert.Equal(t, []string{"Ely"}, namesOf(got))
}

func TestApply_IncomeAndAgeRequireValues(t *testing.T) {
	rich := city("Edina", 53000)
	rich.Metadata.MedianIncome = ptr(120000.0)
	rich.Metadata.MedianAge = ptr(44.0)
	unknown := city("Tower", 500)

	s := DefaultState()
	s.Income = Range{Min: ptr(100000.0)}
	assert.Equal(t, []string{"Edina"}, namesOf(Apply([]model.MergedCity{rich, unknown}, s)))

	s = DefaultState()
	s.Age = Range{Max: ptr(40.0)}
	assert.Empty(t, Apply([]model.MergedCity{rich, unknown}, s))
}

func TestApply_UniversityFilter(t *testing.T) {
	withUni := city("Northfield", 20000)
	withUni.Metadata.Universities = []model.University{{Name: "Carleton College"}}
	without := city("Dundas", 1700)
	cities := []model.MergedCity{withUni, without}

	s := DefaultState()
	s.University = UniversityYes
	assert.Equal(t, []string{"Northfield"}, namesOf(Apply(cities, s)))

	s.University = UniversityNo
	assert.Equal(t, []string{"Dundas"}, namesOf(Apply(cities, s)))

	s.University = UniversityAny
	assert.Len(t, Apply(cities, s), 2)
}

func TestApply_EmployerFilter(t *testing.T) {
	big := city("Rochester", 121000)
	big.Metadata.Businesses = []model.Business{{Name: "Mayo Clinic", EmployeeCategory: model.EmployeesLarge}}
	mid := city("Owatonna", 26000)
	mid.Metadata.Businesses = []model.Business{
		{Name: "Plant", EmployeeCategory: model.EmployeesMedium},
		{Name: "Shop", EmployeeCategory: "10-99"},
	}
	none := city("Ely", 3400)
	cities := []model.MergedCity{big, mid, none}

	s := DefaultState()
	s.Employers = EmployerLarge
	assert.Equal(t, []string{"Rochester"}, namesOf(Apply(cities, s)))

	s.Employers = EmployerMedium
	assert.Equal(t, []string{"Owatonna"}, namesOf(Apply(cities, s)))
}

func TestApply_SearchCaseInsensitiveNameOnly(t *testing.T) {
	a := city("Saint Paul", 300000)
	a.Metadata.County = "Ramsey"
	b := city("Paulding", 100)
	c := city("Ramsey", 27000)
	cities := []model.MergedCity{a, b, c}

	s := DefaultState()
	s.Search = "PAUL"
	assert.Equal(t, []string{"Saint Paul", "Paulding"}, namesOf(Apply(cities, s)))

	s.Search = "ramsey"
	assert.Equal(t, []string{"Ramsey"}, namesOf(Apply(cities, s)))
}

func TestApply_StableSortKeepsTies(t *testing.T) {
	cities := []model.MergedCity{city("First", 100), city("Second", 100), city("Third", 50)}

	s := DefaultState()
	s.Direction = Asc
	assert.Equal(t, []string{"Third", "First", "Second"}, namesOf(Apply(cities, s)))

	s.Direction = Desc
	assert.Equal(t, []string{"First", "Second", "Third"}, namesOf(Apply(cities, s)))
}

func TestApply_MissingSortValueTreatedAsZero(t *testing.T) {
	withIncome := city("Edina", 53000)
	withIncome.Metadata.MedianIncome = ptr(120000.0)
	noIncome := city("Tower", 500)

	s := DefaultState()
	s.SortField = SortIncome
	s.Direction = Asc
	assert.Equal(t, []string{"Tower", "Edina"}, namesOf(Apply([]model.MergedCity{withIncome, noIncome}, s)))
}

func TestApply_Idempotent(t *testing.T) {
	cities := []model.MergedCity{
		city("B", 100), city("A", 100), city("C", 300), city("D", 50),
	}
	states := []State{DefaultState()}
	for _, f := range []SortField{SortPopulation, SortAlpha, SortIncome, SortAge} {
		for _, d := range []Direction{Asc, Desc} {
			s := DefaultState()
			s.SortField, s.Direction = f, d
			states = append(states, s)
		}
	}

	for _, s := range states {
		once := Apply(cities, s)
		twice := Apply(once, s)
		assert.Equal(t, namesOf(once), namesOf(twice), s.Key())
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	cities := []model.MergedCity{city("B", 1), city("A", 2)}
	s := DefaultState()
	s.SortField = SortAlpha
	s.Direction = Asc

	got := Apply(cities, s)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"B", "A"}, namesOf(cities))
	assert.Equal(t, []string{"A", "B"}, namesOf(got))
}
