package bundle

import (
	json "github.com/goccy/go-json"

	fc "github.com/gofhir/converter"
)

// TransformReport summarizes one transformation run: how many records of
// each type were attempted, how many mapped, and the failures for those
// that did not. Counts carry an entry for every supported type even when
// zero records of that type were seen.
type TransformReport struct {
	attempted map[fc.ResourceType]int
	succeeded map[fc.ResourceType]int
	failed    map[fc.ResourceType]int
	failures  []fc.MappingFailure
}

// NewTransformReport creates an empty report with zeroed per-type counts.
func NewTransformReport() *TransformReport {
	r := &TransformReport{
		attempted: make(map[fc.ResourceType]int, len(fc.MappingOrder)),
		succeeded: make(map[fc.ResourceType]int, len(fc.MappingOrder)),
		failed:    make(map[fc.ResourceType]int, len(fc.MappingOrder)),
	}
	for _, t := range fc.MappingOrder {
		r.attempted[t] = 0
		r.succeeded[t] = 0
		r.failed[t] = 0
	}
	return r
}

func (r *TransformReport) recordSuccess(t fc.ResourceType) {
	r.attempted[t]++
	r.succeeded[t]++
}

func (r *TransformReport) recordFailure(failure fc.MappingFailure) {
	r.attempted[failure.ResourceType]++
	r.failed[failure.ResourceType]++
	r.failures = append(r.failures, failure)
}

// Attempted returns the number of records of one type that entered
// mapping.
func (r *TransformReport) Attempted(t fc.ResourceType) int {
	return r.attempted[t]
}

// Succeeded returns the number of records of one type that mapped.
func (r *TransformReport) Succeeded(t fc.ResourceType) int {
	return r.succeeded[t]
}

// Failed returns the number of records of one type that failed mapping.
func (r *TransformReport) Failed(t fc.ResourceType) int {
	return r.failed[t]
}

// TotalAttempted returns the number of records across all types that
// entered mapping.
func (r *TransformReport) TotalAttempted() int {
	n := 0
	for _, c := range r.attempted {
		n += c
	}
	return n
}

// TotalFailed returns the number of records across all types that failed.
func (r *TransformReport) TotalFailed() int {
	return len(r.failures)
}

// Failures returns the recorded mapping failures in occurrence order.
func (r *TransformReport) Failures() []fc.MappingFailure {
	return r.failures
}

// Clean reports whether every attempted record mapped.
func (r *TransformReport) Clean() bool {
	return len(r.failures) == 0
}

// MarshalJSON serializes the report with string-keyed count maps and the
// failure list.
func (r *TransformReport) MarshalJSON() ([]byte, error) {
	toStringKeys := func(m map[fc.ResourceType]int) map[string]int {
		out := make(map[string]int, len(m))
		for t, c := range m {
			out[string(t)] = c
		}
		return out
	}
	failures := r.failures
	if failures == nil {
		failures = []fc.MappingFailure{}
	}
	return json.Marshal(map[string]any{
		"attempted": toStringKeys(r.attempted),
		"succeeded": toStringKeys(r.succeeded),
		"failed":    toStringKeys(r.failed),
		"failures":  failures,
	})
}
