package model

// EmployeeCategory is a coarse business-size bucket.
type EmployeeCategory string

const (
	EmployeesLarge  EmployeeCategory = "500+"
	EmployeesMedium EmployeeCategory = "100-499"
	EmployeesOther  EmployeeCategory = "other"
)

// CityPoint is a geographic marker for one city.
type CityPoint struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Score     float64 `json:"score"`
}

// University is a post-secondary institution located in a city.
type University struct {
	Name       string   `json:"name"`
	Website    *string  `json:"website,omitempty"`
	Enrollment *int     `json:"enrollment,omitempty"`
	Tuition    *float64 `json:"tuition,omitempty"`
}

// Business is a mid or large employer located in a city.
type Business struct {
	Name             string           `json:"name"`
	Website          *string          `json:"website,omitempty"`
	Industry         string           `json:"industry"`
	EmployeeCategory EmployeeCategory `json:"employee_category"`
	Description      *string          `json:"description,omitempty"`
}

// CityMetadata is the demographic, business and education record for a city.
// Nil pointer fields were absent from the source.
type CityMetadata struct {
	City             string             `json:"city"`
	Population       *int               `json:"population_2020,omitempty"`
	MedianIncome     *float64           `json:"median_income,omitempty"`
	MedianAge        *float64           `json:"median_age,omitempty"`
	Density          *float64           `json:"density_sq_mi,omitempty"`
	IncorporatedYear *int               `json:"incorporated_year,omitempty"`
	County           string             `json:"county"`
	CountyWebsite    *string            `json:"county_website,omitempty"`
	Website          *string            `json:"website,omitempty"`
	RaceBreakdown    map[string]float64 `json:"race_breakdown,omitempty"`
	Universities     []University       `json:"universities,omitempty"`
	Businesses       []Business         `json:"businesses,omitempty"`
	Overview         *string            `json:"overview,omitempty"`
	FIPSCode         *string            `json:"fips_code,omitempty"`
	GNISID           *string            `json:"gnis_id,omitempty"`
	IsCountySeat     bool               `json:"is_county_seat,omitempty"`
	IsStateCapital   bool               `json:"is_state_capital,omitempty"`
}

// HasUniversity reports whether the city lists at least one university.
func (m *CityMetadata) HasUniversity() bool {
	return m != nil && len(m.Universities) > 0
}

// HasEmployer reports whether the city has at least one business in the
// given size class.
func (m *CityMetadata) HasEmployer(cat EmployeeCategory) bool {
	if m == nil {
		return false
	}
	for _, b := range m.Businesses {
		if b.EmployeeCategory == cat {
			return true
		}
	}
	return false
}

// MergedCity joins a CityPoint with its optional metadata.
type MergedCity struct {
	Point    CityPoint     `json:"point"`
	Metadata *CityMetadata `json:"metadata,omitempty"`
	Slug     string        `json:"slug"`
	MarkerID string        `json:"marker_id,omitempty"`
}

// Name returns the display name of the city.
func (c MergedCity) Name() string {
	return c.Point.Name
}

// PopulationValue returns the population, or 0 when unknown.
func (c MergedCity) PopulationValue() float64 {
	if c.Metadata == nil || c.Metadata.Population == nil {
		return 0
	}
	return float64(*c.Metadata.Population)
}

// IncomeValue returns the median income, or 0 when unknown.
func (c MergedCity) IncomeValue() float64 {
	if c.Metadata == nil || c.Metadata.MedianIncome == nil {
		return 0
	}
	return *c.Metadata.MedianIncome
}

// AgeValue returns the median age, or 0 when unknown.
func (c MergedCity) AgeValue() float64 {
	if c.Metadata == nil || c.Metadata.MedianAge == nil {
		return 0
	}
	return *c.Metadata.MedianAge
}

// CityImage associates an image URL with a city name.
type CityImage struct {
	City     string `json:"city"`
	ImageURL string `json:"image_url"`
}

// NewsItem is a single news story about a city.
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}
