package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trials-map/internal/country"
	"trials-map/internal/model"
)

func TestExportXLSX_RoundTrip(t *testing.T) {
	table := sampleTable()
	studies, err := Enrich(table, country.Default())
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := ExportXLSX(&buf, table.Header(), studies)
	require.NoError(t, err)
	assert.Equal(t, len(studies), n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheet}, f.GetSheetList())

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(studies)+1, "one row per enriched record, including unmatched ones")

	assert.Equal(t, append(append([]string{}, model.TargetFields...), model.FieldCountry), rows[0])
	assert.Equal(t, "NCT001", rows[1][0])
	assert.Equal(t, "United States", rows[1][6])
	assert.Equal(t, "NCT003", rows[3][0])

	start, err := f.GetCellValue(ExportSheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-15", start)

	blank, err := f.GetCellValue(ExportSheet, "E5")
	require.NoError(t, err)
	assert.Empty(t, blank, "unparsable dates are left blank")
}

func TestExportXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportXLSX(&buf, model.TargetFields, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
