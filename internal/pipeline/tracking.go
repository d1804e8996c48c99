package pipeline

import (
	"time"

	"trials-map/internal/logging"
	"trials-map/internal/metrics"
)

// Stats counts records through each stage of one search.
type Stats struct {
	Fetched          int           `json:"fetched"`
	Enriched         int           `json:"enriched"`
	DroppedByDate    int           `json:"dropped_by_date"`
	DroppedByCountry int           `json:"dropped_by_country"`
	Kept             int           `json:"kept"`
	Countries        int           `json:"countries"`
	Duration         time.Duration `json:"duration"`
}

// Report logs the stats and feeds the pipeline counters.
func (s Stats) Report(searchTerms string) {
	metrics.RecordPipeline(s.Kept, s.DroppedByDate, s.DroppedByCountry)
	logging.Info().
		Str("terms", searchTerms).
		Int("fetched", s.Fetched).
		Int("dropped_by_date", s.DroppedByDate).
		Int("dropped_by_country", s.DroppedByCountry).
		Int("kept", s.Kept).
		Int("countries", s.Countries).
		Dur("took", s.Duration).
		Msg("search pipeline done")
}
