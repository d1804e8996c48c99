package model

// Table is the registry response in rectangular form. The first row is the
// header (field names), every other row is one study.
type Table [][]string

// Header returns the field names, or nil for an empty table.
func (t Table) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns the data rows without the header.
func (t Table) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// HasData reports whether the table holds at least one data row.
func (t Table) HasData() bool {
	return len(t) >= 2
}

// CountryCount is the number of filtered studies matched to one country.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// TableRow is one projected search result keyed by column name:
// NCT Number, Study Title, Country and the requested date field.
type TableRow map[string]any
