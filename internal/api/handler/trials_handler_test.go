package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trials-map/internal/chart"
	"trials-map/internal/config"
	"trials-map/internal/country"
	"trials-map/internal/fetcher"
	"trials-map/internal/model"
	"trials-map/internal/pipeline"
)

type fakeFetcher struct {
	table model.Table
	err   error

	gotTerms string
	gotMax   int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, terms string, _ []string, n int) (model.Table, error) {
	f.gotTerms, f.gotMax = terms, n
	return f.table, f.err
}

func diabetesTable() model.Table {
	return model.Table{
		model.TargetFields,
		{"NCT001", "Metformin in Adults", "https://clinicaltrials.gov/study/NCT001", "Mayo Clinic, Rochester, Minnesota, United States", "2020-01-15", "2022-06-30"},
		{"NCT002", "Insulin Pump Trial", "https://clinicaltrials.gov/study/NCT002", "Charité, Berlin, Germany", "2019-03", "2021-12-31"},
		{"NCT003", "Diet Study", "https://clinicaltrials.gov/study/NCT003", "", "2018-05-01", ""},
	}
}

func newHandler(f fetcher.Fetcher) *TrialsHandler {
	return NewTrialsHandler(f, country.Default(), chart.NewBuilder(country.Default()), 1000)
}

func postSearch(t *testing.T, h *TrialsHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.Search(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestSearch_Diabetes(t *testing.T) {
	f := &fakeFetcher{table: diabetesTable()}
	rec, out := postSearch(t, newHandler(f), `{"search_terms":"diabetes","date_field":"Start Date"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "diabetes", f.gotTerms)
	assert.Equal(t, 1000, f.gotMax)

	rows, ok := out["table_data"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	for _, r := range rows {
		row := r.(map[string]any)
		assert.NotEmpty(t, row["Country"])
		assert.Contains(t, row, "NCT Number")
		assert.Contains(t, row, "Study Title")
		assert.Contains(t, row, "Start Date")
	}
	assert.Equal(t, "2020-01-15", rows[0].(map[string]any)["Start Date"])

	graph, _ := out["graph_html"].(string)
	assert.NotEmpty(t, graph)
	assert.NotEqual(t, chart.Placeholder, graph)
	assert.Contains(t, graph, "Distribution of Clinical Trials by Country for diabetes")
}

func TestSearch_PrimaryCompletionColumn(t *testing.T) {
	_, out := postSearch(t, newHandler(&fakeFetcher{table: diabetesTable()}),
		`{"search_terms":"diabetes","date_field":"Primary Completion Date","pc_date_from":"2022-01-01"}`)

	rows := out["table_data"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "NCT001", row["NCT Number"])
	assert.Equal(t, "2022-06-30", row["Primary Completion Date"])
	assert.NotContains(t, row, "Start Date")
}

func TestSearch_NoData(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeFetcher
	}{
		{"fetch error", &fakeFetcher{err: fmt.Errorf("%w: HTTP 503", fetcher.ErrNoData)}},
		{"header only", &fakeFetcher{err: fetcher.ErrNoData, table: nil}},
		{"unexpected error", &fakeFetcher{err: errors.New("boom")}},
		{"missing column", &fakeFetcher{table: model.Table{{"NCT Number"}, {"NCT1"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := postSearch(t, newHandler(tt.f), `{"search_terms":"zzzz"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, map[string]any{"error": MsgNoSearchData}, out)
		})
	}
}

func TestSearch_FilteredEmpty(t *testing.T) {
	_, out := postSearch(t, newHandler(&fakeFetcher{table: diabetesTable()}),
		`{"search_terms":"diabetes","start_date_from":"2100-01-01"}`)

	rows, ok := out["table_data"].([]any)
	require.True(t, ok, "table_data is an empty array, not null")
	assert.Empty(t, rows)
	assert.Equal(t, chart.Placeholder, out["graph_html"])
}

func TestSearch_BadRequest(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"invalid json", `{"search_terms":`, "Invalid JSON payload"},
		{"missing terms", `{"date_field":"Start Date"}`, "search_terms is required"},
		{"blank terms", `{"search_terms":"   "}`, "search_terms is required"},
		{"bad date", `{"search_terms":"x","start_date_from":"01/02/2020"}`, "start_date_from must be a YYYY-MM-DD date"},
		{"bad date field", `{"search_terms":"x","date_field":"Enrollment"}`, "date_field must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{table: diabetesTable()}
			rec, out := postSearch(t, newHandler(f), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, out["error"], tt.want)
			assert.Empty(t, f.gotTerms, "registry is not called")
		})
	}
}

type failingChart struct{}

func (failingChart) Build([]model.CountryCount, string) (string, error) {
	return "", errors.New("template broke")
}

func TestSearch_ChartFailure(t *testing.T) {
	h := NewTrialsHandler(&fakeFetcher{table: diabetesTable()}, country.Default(), failingChart{}, 10)
	rec, out := postSearch(t, h, `{"search_terms":"diabetes"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, out["error"])
}

func TestDownload(t *testing.T) {
	h := newHandler(&fakeFetcher{table: diabetesTable()})
	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/download?search_terms=diabetes&date_field=Start+Date", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.ExportContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="clinical_trials.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(pipeline.ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus every enriched record, unfiltered")
	assert.Equal(t, "Country", rows[0][len(rows[0])-1])
}

func TestDownload_Errors(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(&fakeFetcher{table: diabetesTable()}).Download(rec, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "search_terms is required")

	rec = httptest.NewRecorder()
	newHandler(&fakeFetcher{err: fetcher.ErrNoData}).Download(rec, httptest.NewRequest(http.MethodGet, "/download?search_terms=zzzz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"No clinical trials data available."}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(&fakeFetcher{}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_BreakerState(t *testing.T) {
	b := fetcher.NewBreaker(&fakeFetcher{err: errors.New("connection refused")}, config.BreakerConfig{FailureThreshold: 1, Timeout: time.Hour})
	h := NewTrialsHandler(b, country.Default(), chart.NewBuilder(country.Default()), 10)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","registry":"closed"}`, rec.Body.String())

	_, err := b.Fetch(context.Background(), "x", nil, 1)
	require.Error(t, err)

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","registry":"open"}`, rec.Body.String())
}
