package bundle

import (
	"sync"
	"time"

	fc "github.com/gofhir/converter"
)

// Assembler accumulates mapping output into a Bundle and a
// TransformReport. It is safe for concurrent use, though callers that
// need deterministic resource order must add group results in a fixed
// order themselves.
type Assembler struct {
	mu       sync.Mutex
	bundle   *Bundle
	report   *TransformReport
	finished bool
}

// NewAssembler creates an Assembler for one transformation run.
func NewAssembler(sourceSystem string, generatedAt time.Time) *Assembler {
	return &Assembler{
		bundle: New(sourceSystem, generatedAt),
		report: NewTransformReport(),
	}
}

// Add records one successfully mapped record and its resources. A single
// record may fan out into several resources; it still counts once.
func (a *Assembler) Add(t fc.ResourceType, resources []fc.Resource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished {
		return
	}
	a.report.recordSuccess(t)
	for _, res := range resources {
		a.bundle.add(res)
	}
}

// Fail records one mapping failure.
func (a *Assembler) Fail(failure fc.MappingFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished {
		return
	}
	a.report.recordFailure(failure)
}

// Finalize closes the Assembler and returns the Bundle and report.
// Further Add and Fail calls are ignored.
func (a *Assembler) Finalize() (*Bundle, *TransformReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = true
	return a.bundle, a.report
}
