package pipeline

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"trials-map/internal/model"
)

const (
	// ExportSheet is the name of the single worksheet.
	ExportSheet = "Clinical Trials"

	// ExportFileName is the suggested download name.
	ExportFileName = "clinical_trials.xlsx"

	// ExportContentType is the MIME type of the workbook.
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportXLSX writes one row per study, unfiltered, under the fetched header
// plus a Country column. Date columns hold real dates, blank when the
// registry value could not be parsed. It returns the number of data rows.
func ExportXLSX(w io.Writer, header []string, studies []model.Study) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return 0, fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream writer: %w", err)
	}

	columns := exportColumns(header)
	titles := make([]any, len(columns))
	for i, c := range columns {
		titles[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", titles); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for n, s := range studies {
		row := make([]any, len(columns))
		for i, c := range columns {
			switch {
			case c == model.FieldCountry && i == len(columns)-1:
				row[i] = s.Country
			case c == model.FieldStartDate || c == model.FieldPrimaryCompletionDate:
				if d := s.Date(model.DateField(c)); d != nil {
					row[i] = excelize.Cell{StyleID: dateStyle, Value: *d}
				}
			case i < len(s.Raw):
				row[i] = s.Raw[i]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return n, fmt.Errorf("failed to write row %d: %w", n+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(studies), nil
}

// exportColumns is the fetched header with Country appended.
func exportColumns(header []string) []string {
	cols := make([]string, 0, len(header)+1)
	cols = append(cols, header...)
	return append(cols, model.FieldCountry)
}
