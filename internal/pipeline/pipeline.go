// Package pipeline turns a fetched registry table into search results:
// ingest, enrich (country and dates), filter, project and aggregate. The
// export stage writes the enriched records to a spreadsheet.
package pipeline

import (
	"time"

	"trials-map/internal/model"
	"trials-map/pkg/utils"
)

// Result is the output of one search.
type Result struct {
	Rows   []model.TableRow
	Counts []model.CountryCount
	Stats  Stats
}

// Enrich ingests the table and derives country and dates for every row.
// Nothing is filtered; this is the record set behind the spreadsheet export.
func Enrich(table model.Table, extractor CountryExtractor) ([]model.Study, error) {
	studies, err := Ingest(table)
	if err != nil {
		return nil, err
	}
	Transform(studies, table.Header(), extractor)
	return studies, nil
}

// Run executes the full search pipeline. An empty filtered set yields empty,
// non-nil Rows and Counts.
func Run(table model.Table, q model.Query, extractor CountryExtractor) (Result, error) {
	start := time.Now()

	studies, err := Enrich(table, extractor)
	if err != nil {
		return Result{}, err
	}
	stats := Stats{Fetched: len(table.Rows()), Enriched: len(studies)}

	dated := FilterByDates(studies, q)
	stats.DroppedByDate = len(studies) - len(dated)

	located := FilterByCountry(dated)
	stats.DroppedByCountry = len(dated) - len(located)
	stats.Kept = len(located)

	res := Result{
		Rows:   Project(located, q.DateField),
		Counts: CountByCountry(located),
	}
	stats.Countries = len(res.Counts)
	stats.Duration = time.Since(start)
	res.Stats = stats
	return res, nil
}

// Project renders the rows returned to clients: NCT Number, Study Title,
// Country and the selected date as YYYY-MM-DD or null.
func Project(studies []model.Study, field model.DateField) []model.TableRow {
	if field == "" {
		field = model.DateFieldStart
	}
	rows := make([]model.TableRow, 0, len(studies))
	for _, s := range studies {
		rows = append(rows, model.TableRow{
			model.FieldNCTNumber:  s.NCTNumber,
			model.FieldStudyTitle: s.Title,
			model.FieldCountry:    s.Country,
			string(field):         utils.FormatDate(s.Date(field)),
		})
	}
	return rows
}
