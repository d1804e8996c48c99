package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"trials-map/internal/model"
)

// ErrMissingColumn is returned when the fetched table lacks a column the
// pipeline cannot do without.
var ErrMissingColumn = errors.New("required column missing from registry response")

// requiredColumns must be present in every fetched header.
var requiredColumns = []string{model.FieldNCTNumber, model.FieldLocations}

// columnIndex maps header names to positions.
type columnIndex map[string]int

func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func newColumnIndex(header []string) (columnIndex, error) {
	idx := indexHeader(header)
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func (ci columnIndex) get(row []string, name string) string {
	i, ok := ci[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Ingest turns the fetched table into study records, one per data row.
// Short rows are padded to the header width.
func Ingest(table model.Table) ([]model.Study, error) {
	header := table.Header()
	idx, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	rows := table.Rows()
	studies := make([]model.Study, 0, len(rows))
	for _, row := range rows {
		raw := make([]string, len(header))
		copy(raw, row)
		studies = append(studies, model.Study{
			NCTNumber: idx.get(raw, model.FieldNCTNumber),
			Title:     idx.get(raw, model.FieldStudyTitle),
			URL:       idx.get(raw, model.FieldStudyURL),
			Locations: idx.get(raw, model.FieldLocations),
			Raw:       raw,
		})
	}
	return studies, nil
}
