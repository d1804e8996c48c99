package model

import (
	"errors"
	"strings"
	"time"
)

// Registry column names, as returned by the ClinicalTrials.gov CSV download.
const (
	FieldNCTNumber             = "NCT Number"
	FieldStudyTitle            = "Study Title"
	FieldStudyURL              = "Study URL"
	FieldLocations             = "Locations"
	FieldStartDate             = "Start Date"
	FieldPrimaryCompletionDate = "Primary Completion Date"

	// FieldCountry is derived, never fetched.
	FieldCountry = "Country"
)

// TargetFields is the field set requested from the registry for every search.
var TargetFields = []string{
	FieldNCTNumber,
	FieldStudyTitle,
	FieldStudyURL,
	FieldLocations,
	FieldStartDate,
	FieldPrimaryCompletionDate,
}

// ErrInvalidDateField is returned for a date_field outside the two known names.
var ErrInvalidDateField = errors.New("date_field must be one of \"Start Date\" or \"Primary Completion Date\"")

// DateField selects which study date is shown in search results.
type DateField string

const (
	DateFieldStart             DateField = FieldStartDate
	DateFieldPrimaryCompletion DateField = FieldPrimaryCompletionDate
)

// ParseDateField accepts the column name or its snake_case alias. An empty
// value selects the start date.
func ParseDateField(s string) (DateField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start date", "start_date":
		return DateFieldStart, nil
	case "primary completion date", "primary_completion_date", "pc_date":
		return DateFieldPrimaryCompletion, nil
	default:
		return "", ErrInvalidDateField
	}
}

// Study is one clinical trial as fetched from the registry, plus the
// country derived from its locations.
type Study struct {
	NCTNumber             string
	Title                 string
	URL                   string
	Locations             string
	StartDate             *time.Time
	PrimaryCompletionDate *time.Time

	// Country is empty when no recognised country appears in Locations.
	Country string

	// Raw holds the fetched row, aligned with the table header.
	Raw []string
}

// HasCountry reports whether a country was matched for the study.
func (s Study) HasCountry() bool {
	return s.Country != ""
}

// Date returns the study date selected by f.
func (s Study) Date(f DateField) *time.Time {
	if f == DateFieldPrimaryCompletion {
		return s.PrimaryCompletionDate
	}
	return s.StartDate
}

// Query is a validated search request.
type Query struct {
	SearchTerms string
	DateField   DateField

	// Inclusive bounds; nil means "not supplied".
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	PCDateFrom    *time.Time
	PCDateTo      *time.Time
}

// HasDateBounds reports whether any date bound was supplied.
func (q Query) HasDateBounds() bool {
	return q.StartDateFrom != nil || q.StartDateTo != nil || q.PCDateFrom != nil || q.PCDateTo != nil
}
