package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trials-map/internal/model"
)

// downloadPath is the registry's CSV export endpoint.
const downloadPath = "/api/int/studies/download"

// DownloadFetcher pulls the registry's CSV export in one request.
type DownloadFetcher struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string

	// MaxFieldBytes bounds any single CSV field.
	MaxFieldBytes int

	// MaxBodyBytes bounds the whole response body.
	MaxBodyBytes int64
}

func (f *DownloadFetcher) Name() string { return "download" }

// Fetch requests the CSV export and keeps at most maxStudies data rows.
func (f *DownloadFetcher) Fetch(ctx context.Context, searchExpr string, fields []string, maxStudies int) (table model.Table, err error) {
	start := time.Now()
	defer func() { observe(f.Name(), start, table, err) }()

	params := url.Values{
		"format": {"csv"},
		"cond":   {searchExpr},
		"fields": {strings.Join(fields, ",")},
	}
	reqURL := strings.TrimRight(f.BaseURL, "/") + downloadPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fail(f.Name(), "request", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "text/csv")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := httpClient(f.Client).Do(req)
	if err != nil {
		return nil, fail(f.Name(), "network", fmt.Errorf("registry request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(f.Name(), "status", &StatusError{Code: resp.StatusCode})
	}

	table, err = f.parse(resp.Body, maxStudies)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, errEmpty) {
			reason = "empty"
		}
		return nil, fail(f.Name(), reason, err)
	}
	return table, nil
}

func (f *DownloadFetcher) parse(body io.Reader, maxStudies int) (model.Table, error) {
	maxBody := bodyLimit(f.MaxBodyBytes)
	maxField := f.MaxFieldBytes
	if maxField <= 0 {
		maxField = defaultMaxFieldBytes
	}

	limited := &io.LimitedReader{R: body, N: maxBody + 1}
	r := csv.NewReader(limited)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.TrimSpace(h)
	}

	table := model.Table{header}
	for maxStudies <= 0 || len(table)-1 < maxStudies {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(table), err)
		}
		for _, field := range rec {
			if len(field) > maxField {
				return nil, fmt.Errorf("CSV row %d has a field of %d bytes, limit is %d", len(table), len(field), maxField)
			}
		}
		table = append(table, rec)
	}

	if limited.N <= 0 {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxBody)
	}
	if !table.HasData() {
		return nil, errEmpty
	}
	return table, nil
}
