package pipeline

import (
	"sort"

	"trials-map/internal/model"
)

// CountByCountry counts studies per matched country. Results are ordered by
// count descending, then by name. Studies without a country are skipped.
func CountByCountry(studies []model.Study) []model.CountryCount {
	counts := make(map[string]int)
	for _, s := range studies {
		if s.HasCountry() {
			counts[s.Country]++
		}
	}

	out := make([]model.CountryCount, 0, len(counts))
	for country, n := range counts {
		out = append(out, model.CountryCount{Country: country, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}

