package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trials-map/internal/model"
)

const sampleCSV = "\ufeffNCT Number,Study Title,Study URL,Locations,Start Date,Primary Completion Date\n" +
	"NCT00000001,Metformin in Adults,https://clinicaltrials.gov/study/NCT00000001,\"Mayo Clinic, Rochester, Minnesota, United States\",2020-01-15,2022-06\n" +
	"NCT00000002,Insulin Pump Trial,https://clinicaltrials.gov/study/NCT00000002,\"Charité, Berlin, Germany|Hospital, Paris, France\",2019-03,2021-12-31\n" +
	"NCT00000003,Diet Study,https://clinicaltrials.gov/study/NCT00000003,,2018,\n"

func csvServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

func TestDownloadFetcher_Fetch(t *testing.T) {
	ts, seen := csvServer(t, http.StatusOK, sampleCSV)
	f := &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL, UserAgent: "trials-map-test"}

	table, err := f.Fetch(context.Background(), "diabetes", model.TargetFields, 1000)
	require.NoError(t, err)

	assert.Equal(t, "/api/int/studies/download", seen.URL.Path)
	q := seen.URL.Query()
	assert.Equal(t, "csv", q.Get("format"))
	assert.Equal(t, "diabetes", q.Get("cond"))
	assert.Equal(t, strings.Join(model.TargetFields, ","), q.Get("fields"))
	assert.Equal(t, "trials-map-test", seen.Header.Get("User-Agent"))

	require.Len(t, table, 4)
	assert.Equal(t, model.TargetFields, table.Header(), "BOM is stripped from the first header")
	assert.Equal(t, "NCT00000002", table[2][0])
	assert.Equal(t, "Charité, Berlin, Germany|Hospital, Paris, France", table[2][3])
}

func TestDownloadFetcher_Cap(t *testing.T) {
	ts, _ := csvServer(t, http.StatusOK, sampleCSV)
	f := &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL}

	table, err := f.Fetch(context.Background(), "diabetes", model.TargetFields, 2)
	require.NoError(t, err)
	assert.Len(t, table.Rows(), 2)
}

func TestDownloadFetcher_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "oops"},
		{"not found", http.StatusNotFound, ""},
		{"empty body", http.StatusOK, ""},
		{"header only", http.StatusOK, "NCT Number,Locations\n"},
		{"html page", http.StatusOK, "<html><body>Maintenance</body></html>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := csvServer(t, tt.status, tt.body)
			f := &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL}

			table, err := f.Fetch(context.Background(), "x", model.TargetFields, 10)
			assert.ErrorIs(t, err, ErrNoData)
			assert.Nil(t, table)
		})
	}
}

func TestDownloadFetcher_Limits(t *testing.T) {
	big := strings.Repeat("a", 64)
	body := "NCT Number,Locations\nNCT1," + big + "\n"

	ts, _ := csvServer(t, http.StatusOK, body)

	f := &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL, MaxFieldBytes: 32}
	_, err := f.Fetch(context.Background(), "x", model.TargetFields, 10)
	assert.ErrorIs(t, err, ErrNoData)
	assert.ErrorContains(t, err, "limit is 32")

	f = &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL, MaxBodyBytes: 40}
	_, err = f.Fetch(context.Background(), "x", model.TargetFields, 10)
	assert.ErrorIs(t, err, ErrNoData)

	f = &DownloadFetcher{Client: ts.Client(), BaseURL: ts.URL, MaxFieldBytes: 64}
	table, err := f.Fetch(context.Background(), "x", model.TargetFields, 10)
	require.NoError(t, err)
	assert.Len(t, table.Rows(), 1)
}

func TestDownloadFetcher_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	f := &DownloadFetcher{BaseURL: url}
	_, err := f.Fetch(context.Background(), "x", model.TargetFields, 10)
	assert.ErrorIs(t, err, ErrNoData)
}
