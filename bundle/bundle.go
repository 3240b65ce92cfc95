// Package bundle assembles mapped FHIR resources into a collection Bundle
// and tracks the outcome of a transformation run.
package bundle

import (
	"time"

	json "github.com/goccy/go-json"

	fc "github.com/gofhir/converter"
)

// Bundle is an ordered collection of mapped FHIR resources grouped by
// resource type. Within a type, resources keep the order in which they were
// added; across types, iteration follows the canonical mapping order so
// serialized output is deterministic for identical input.
type Bundle struct {
	sourceSystem string
	generatedAt  time.Time
	byType       map[fc.ResourceType][]fc.Resource
	byID         map[string]fc.Resource
}

// New creates an empty Bundle stamped with the source system and
// generation time.
func New(sourceSystem string, generatedAt time.Time) *Bundle {
	return &Bundle{
		sourceSystem: sourceSystem,
		generatedAt:  generatedAt,
		byType:       make(map[fc.ResourceType][]fc.Resource),
		byID:         make(map[string]fc.Resource),
	}
}

// SourceSystem returns the legacy source system this Bundle was mapped
// from.
func (b *Bundle) SourceSystem() string {
	return b.sourceSystem
}

// GeneratedAt returns the Bundle generation timestamp.
func (b *Bundle) GeneratedAt() time.Time {
	return b.generatedAt
}

// add appends a resource. Resources with a duplicate type/id pair are
// ignored; deterministic ids make a re-mapped record identical anyway.
func (b *Bundle) add(res fc.Resource) {
	t := fc.ResourceType(res.Type())
	key := fc.FormatReference(t, res.ID())
	if _, dup := b.byID[key]; dup {
		return
	}
	b.byType[t] = append(b.byType[t], res)
	b.byID[key] = res
}

// Resource looks up a resource by type and id.
func (b *Bundle) Resource(t fc.ResourceType, id string) (fc.Resource, bool) {
	res, ok := b.byID[fc.FormatReference(t, id)]
	return res, ok
}

// Contains reports whether a "Type/id" reference target exists in the
// Bundle.
func (b *Bundle) Contains(ref string) bool {
	_, ok := b.byID[ref]
	return ok
}

// OfType returns the resources of one type in insertion order.
func (b *Bundle) OfType(t fc.ResourceType) []fc.Resource {
	return b.byType[t]
}

// All returns every resource in canonical order: types in mapping order,
// resources within a type in insertion order.
func (b *Bundle) All() []fc.Resource {
	out := make([]fc.Resource, 0, b.Count())
	for _, t := range fc.MappingOrder {
		out = append(out, b.byType[t]...)
	}
	return out
}

// Count returns the total number of resources.
func (b *Bundle) Count() int {
	n := 0
	for _, list := range b.byType {
		n += len(list)
	}
	return n
}

// CountByType returns per-type resource counts, with a zero entry for
// every supported type.
func (b *Bundle) CountByType() map[fc.ResourceType]int {
	counts := make(map[fc.ResourceType]int, len(fc.MappingOrder))
	for _, t := range fc.MappingOrder {
		counts[t] = len(b.byType[t])
	}
	return counts
}

// MarshalJSON serializes the Bundle as a FHIR collection Bundle with a
// meta block recording provenance.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	entries := make([]map[string]any, 0, b.Count())
	for _, res := range b.All() {
		entries = append(entries, map[string]any{"resource": res})
	}
	return json.Marshal(map[string]any{
		"resourceType": "Bundle",
		"type":         "collection",
		"meta": map[string]any{
			"sourceSystem": b.sourceSystem,
			"generatedAt":  b.generatedAt.UTC().Format(time.RFC3339),
		},
		"total": b.Count(),
		"entry": entries,
	})
}
