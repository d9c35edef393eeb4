package indexing

import (
	"time"

	"github.com/kailas-cloud/searchgate/internal/engine"
)

// maxSample bounds the per-item failures kept in reports.
const maxSample = 3

// FlushReport is the outcome of one bulk write.
type FlushReport struct {
	Index    string               `json:"index"`
	Count    int                  `json:"count"`
	Failed   int                  `json:"failed"`
	Sample   []engine.BulkFailure `json:"sample,omitempty"`
	Duration time.Duration        `json:"duration"`
}

// Indexed is the number of documents the engine accepted.
func (r FlushReport) Indexed() int { return r.Count - r.Failed }

// Report aggregates every flush of one indexer session.
type Report struct {
	Type     string               `json:"type"`
	Index    string               `json:"index"`
	Accepted int                  `json:"accepted"`
	Indexed  int                  `json:"indexed"`
	Failed   int                  `json:"failed"`
	Flushes  int                  `json:"flushes"`
	Sample   []engine.BulkFailure `json:"sample,omitempty"`
	Duration time.Duration        `json:"duration"`
}

func (r *Report) add(f FlushReport) {
	r.Flushes++
	r.Indexed += f.Indexed()
	r.Failed += f.Failed
	r.Duration += f.Duration
	for _, s := range f.Sample {
		if len(r.Sample) >= maxSample {
			break
		}
		r.Sample = append(r.Sample, s)
	}
}

func sample(failures []engine.BulkFailure) []engine.BulkFailure {
	if len(failures) > maxSample {
		return failures[:maxSample]
	}
	return failures
}
