package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/city-explorer/internal/model"
)

const (
	citiesSheet    = "Cities"
	employersSheet = "Employers"
)

var citiesHeader = []string{
	"Rank", "City", "Slug", "County", "Population", "Median Income", "Median Age",
	"Universities", "500+ Employers", "Employers", "Score", "Latitude", "Longitude", "Marker",
}

var employersHeader = []string{"City", "Employer", "Industry", "Employees", "Website"}

// WriteXLSX writes a workbook with a Cities sheet in result order and an
// Employers sheet listing every business of every city.
func WriteXLSX(w io.Writer, cities []model.MergedCity) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(citiesSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add cities sheet")
	}
	addStrings(sheet.AddRow(), citiesHeader)
	for _, r := range Rows(cities) {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Slug)
		row.AddCell().SetString(r.County)
		addOptionalInt(row, r.Population)
		addOptionalFloat(row, r.MedianIncome)
		addOptionalFloat(row, r.MedianAge)
		row.AddCell().SetInt(r.Universities)
		row.AddCell().SetInt(r.LargeEmployers)
		row.AddCell().SetInt(r.Employers)
		row.AddCell().SetFloat(r.Score)
		row.AddCell().SetFloat(r.Latitude)
		row.AddCell().SetFloat(r.Longitude)
		row.AddCell().SetString(r.MarkerID)
	}

	emp, err := f.AddSheet(employersSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add employers sheet")
	}
	addStrings(emp.AddRow(), employersHeader)
	for _, c := range cities {
		if c.Metadata == nil {
			continue
		}
		for _, b := range c.Metadata.Businesses {
			website := ""
			if b.Website != nil {
				website = *b.Website
			}
			addStrings(emp.AddRow(), []string{c.Name(), b.Name, b.Industry, string(b.EmployeeCategory), website})
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func addStrings(row *xlsx.Row, values []string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addOptionalInt(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}

func addOptionalFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

// ReadSheet returns every row of the named sheet as strings.
func ReadSheet(path, name string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
