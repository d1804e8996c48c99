package pipeline

import (
	"runtime"
	"sync"

	"trials-map/internal/model"
	"trials-map/pkg/utils"
)

// CountryExtractor resolves a location string to one country name.
type CountryExtractor interface {
	Extract(location string) (string, bool)
}

// minChunk keeps small batches on a single goroutine.
const minChunk = 64

// Transform derives Country, StartDate and PrimaryCompletionDate for every
// study in place. Work is split across a small worker pool; each worker
// owns a contiguous slice so output order is preserved.
func Transform(studies []model.Study, header []string, extractor CountryExtractor) {
	idx := indexHeader(header)

	workers := runtime.GOMAXPROCS(0)
	if n := (len(studies) + minChunk - 1) / minChunk; n < workers {
		workers = n
	}
	if workers <= 1 {
		enrichRange(studies, idx, extractor)
		return
	}

	chunk := (len(studies) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(studies); start += chunk {
		end := min(start+chunk, len(studies))
		wg.Add(1)
		go func(part []model.Study) {
			defer wg.Done()
			enrichRange(part, idx, extractor)
		}(studies[start:end])
	}
	wg.Wait()
}

func enrichRange(studies []model.Study, idx columnIndex, extractor CountryExtractor) {
	for i := range studies {
		s := &studies[i]
		if country, ok := extractor.Extract(s.Locations); ok {
			s.Country = country
		}
		s.StartDate = utils.ParseDate(idx.get(s.Raw, model.FieldStartDate))
		s.PrimaryCompletionDate = utils.ParseDate(idx.get(s.Raw, model.FieldPrimaryCompletionDate))
	}
}
