package model

// BusinessGroups buckets a city's employers by size class.
type BusinessGroups struct {
	Large  []Business `json:"large"`
	Medium []Business `json:"medium"`
	Other  []Business `json:"other,omitempty"`
}

// Total returns the number of grouped businesses.
func (g BusinessGroups) Total() int {
	return len(g.Large) + len(g.Medium) + len(g.Other)
}

// GroupBusinesses splits businesses into the "500+" and "100-499" buckets.
// Businesses with any other category land in Other instead of being dropped.
func GroupBusinesses(businesses []Business) BusinessGroups {
	g := BusinessGroups{
		Large:  []Business{},
		Medium: []Business{},
	}
	for _, b := range businesses {
		switch b.EmployeeCategory {
		case EmployeesLarge:
			g.Large = append(g.Large, b)
		case EmployeesMedium:
			g.Medium = append(g.Medium, b)
		default:
			g.Other = append(g.Other, b)
		}
	}
	return g
}

// Detail is the resolved detail view for one city, including supplementary
// images and news when available.
type Detail struct {
	City      MergedCity     `json:"city"`
	Images    []string       `json:"images"`
	News      []NewsItem     `json:"news"`
	Employers BusinessGroups `json:"employers"`
}

// NewDetail builds a Detail with empty supplementary data.
func NewDetail(city MergedCity) Detail {
	var businesses []Business
	if city.Metadata != nil {
		businesses = city.Metadata.Businesses
	}
	return Detail{
		City:      city,
		Images:    []string{},
		News:      []NewsItem{},
		Employers: GroupBusinesses(businesses),
	}
}
