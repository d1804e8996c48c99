package pipeline

import (
	"trials-map/internal/model"
	"trials-map/pkg/utils"
)

// FilterByDates keeps studies whose dates satisfy every supplied bound.
// A bound on a date the study lacks drops the study.
func FilterByDates(studies []model.Study, q model.Query) []model.Study {
	if !q.HasDateBounds() {
		return studies
	}
	kept := make([]model.Study, 0, len(studies))
	for _, s := range studies {
		if !utils.InRange(s.StartDate, q.StartDateFrom, q.StartDateTo) {
			continue
		}
		if !utils.InRange(s.PrimaryCompletionDate, q.PCDateFrom, q.PCDateTo) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// FilterByCountry drops studies without a matched country.
func FilterByCountry(studies []model.Study) []model.Study {
	kept := make([]model.Study, 0, len(studies))
	for _, s := range studies {
		if s.HasCountry() {
			kept = append(kept, s)
		}
	}
	return kept
}
