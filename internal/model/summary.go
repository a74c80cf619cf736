package model

// Summary aggregates a batch of extractions for report output.
type Summary struct {
	// Sources is the number of processed sources.
	Sources int `json:"sources"`

	// Succeeded is the number of extractions without failure.
	Succeeded int `json:"succeeded"`

	// Failed counts failed extractions by kind.
	Failed map[FailureKind]int `json:"-"`

	// TotalLinks is the number of links over all successful extractions.
	TotalLinks int `json:"total_links"`

	// UniqueLinks is the number of distinct links across all sources.
	UniqueLinks int `json:"unique_links"`
}

// Summarize computes a Summary. Nil entries are ignored.
func Summarize(extractions []*Extraction) Summary {
	s := Summary{Failed: make(map[FailureKind]int)}
	seen := make(map[string]struct{})

	for _, e := range extractions {
		if e == nil {
			continue
		}
		s.Sources++
		if !e.Succeeded() {
			s.Failed[e.Failure]++
			continue
		}
		s.Succeeded++
		s.TotalLinks += len(e.Links)
		for _, l := range e.Links {
			seen[l] = struct{}{}
		}
	}
	s.UniqueLinks = len(seen)
	return s
}

// FailedTotal returns the number of failed extractions.
func (s Summary) FailedTotal() int {
	n := 0
	for _, c := range s.Failed {
		n += c
	}
	return n
}

// HasFailures reports whether any extraction failed.
func (s Summary) HasFailures() bool {
	return s.FailedTotal() > 0
}
