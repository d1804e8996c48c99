package model

import (
	"fmt"
	"strings"
	"time"
)

// SearchRequest is the body of POST /search
type SearchRequest struct {
	SearchTerms   string `json:"search_terms" validate:"required" example:"diabetes"`
	DateField     string `json:"date_field" example:"Start Date"`
	StartDateFrom string `json:"start_date_from" validate:"omitempty,datetime=2006-01-02" example:"2020-01-01"`
	StartDateTo   string `json:"start_date_to" validate:"omitempty,datetime=2006-01-02"`
	PCDateFrom    string `json:"pc_date_from" validate:"omitempty,datetime=2006-01-02"`
	PCDateTo      string `json:"pc_date_to" validate:"omitempty,datetime=2006-01-02"`
}

// SearchResponse is the success body of POST /search
type SearchResponse struct {
	TableData []TableRow `json:"table_data"`
	GraphHTML string     `json:"graph_html"`
}

// DownloadRequest holds the query parameters of GET /download
type DownloadRequest struct {
	SearchTerms string `json:"search_terms" validate:"required"`
	DateField   string `json:"date_field"`
}

// ErrorResponse carries a human-readable error message
type ErrorResponse struct {
	Error string `json:"error" example:"No clinical trials data found."`
}

// Normalize trims surrounding whitespace from every field.
func (r *SearchRequest) Normalize() {
	r.SearchTerms = strings.TrimSpace(r.SearchTerms)
	r.DateField = strings.TrimSpace(r.DateField)
	r.StartDateFrom = strings.TrimSpace(r.StartDateFrom)
	r.StartDateTo = strings.TrimSpace(r.StartDateTo)
	r.PCDateFrom = strings.TrimSpace(r.PCDateFrom)
	r.PCDateTo = strings.TrimSpace(r.PCDateTo)
}

// ToQuery converts a validated request into a Query.
func (r SearchRequest) ToQuery() (Query, error) {
	field, err := ParseDateField(r.DateField)
	if err != nil {
		return Query{}, err
	}

	q := Query{SearchTerms: r.SearchTerms, DateField: field}
	bounds := []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"start_date_from", r.StartDateFrom, &q.StartDateFrom},
		{"start_date_to", r.StartDateTo, &q.StartDateTo},
		{"pc_date_from", r.PCDateFrom, &q.PCDateFrom},
		{"pc_date_to", r.PCDateTo, &q.PCDateTo},
	}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, b.value)
		if err != nil {
			return Query{}, fmt.Errorf("%s must be a YYYY-MM-DD date: %w", b.name, err)
		}
		*b.dst = &t
	}
	return q, nil
}
