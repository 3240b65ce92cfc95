// Package refindex provides the reference index that maps legacy identifiers
// to assigned FHIR resource ids.
//
// The index is the single source of truth for identifier assignment: mappers
// never invent ids independently. Registration is idempotent and assignments
// are immutable for the lifetime of one run. Lookups for a pair that was
// never registered fail explicitly; the index never fabricates an id.
package refindex

import (
	"sync"

	"github.com/google/uuid"

	fc "github.com/gofhir/converter"
)

// entryKey identifies one (resourceType, legacyId) pair.
type entryKey struct {
	resourceType fc.ResourceType
	legacyID     string
}

// Index maps (resourceType, legacyId) pairs to assigned FHIR ids.
// All methods are safe for concurrent use: parallel patient-group workers
// share one index, and register is check-then-assign under one critical
// section so two workers can never assign different ids to the same pair.
type Index struct {
	mu        sync.RWMutex
	namespace uuid.UUID
	entries   map[entryKey]string
}

// New creates an index for the given source system. Identifiers are
// name-based UUIDs derived from the source-system label and the legacy id,
// so two runs over the same input assign byte-identical ids.
func New(sourceSystem string) *Index {
	return &Index{
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ehr:"+sourceSystem)),
		entries:   make(map[entryKey]string, 64),
	}
}

// Register assigns and returns a stable FHIR id for a legacy id. If the pair
// was already registered, the previously assigned id is returned (idempotent).
func (x *Index) Register(resourceType fc.ResourceType, legacyID string) string {
	k := entryKey{resourceType: resourceType, legacyID: legacyID}

	x.mu.Lock()
	defer x.mu.Unlock()

	if id, ok := x.entries[k]; ok {
		return id
	}

	id := uuid.NewSHA1(x.namespace, []byte(string(resourceType)+"/"+legacyID)).String()
	x.entries[k] = id
	return id
}

// Resolve returns the FHIR id previously assigned to a legacy id. If the
// pair was never registered it returns an *fc.UnresolvedReferenceError.
func (x *Index) Resolve(resourceType fc.ResourceType, legacyID string) (string, error) {
	x.mu.RLock()
	id, ok := x.entries[entryKey{resourceType: resourceType, legacyID: legacyID}]
	x.mu.RUnlock()

	if !ok {
		return "", &fc.UnresolvedReferenceError{ResourceType: resourceType, LegacyID: legacyID}
	}
	return id, nil
}

// ResolveReference is like Resolve but returns a "<ResourceType>/<id>"
// reference string ready to embed in a resource.
func (x *Index) ResolveReference(resourceType fc.ResourceType, legacyID string) (string, error) {
	id, err := x.Resolve(resourceType, legacyID)
	if err != nil {
		return "", err
	}
	return fc.FormatReference(resourceType, id), nil
}

// Registered reports whether the pair has been registered.
func (x *Index) Registered(resourceType fc.ResourceType, legacyID string) bool {
	x.mu.RLock()
	_, ok := x.entries[entryKey{resourceType: resourceType, legacyID: legacyID}]
	x.mu.RUnlock()
	return ok
}

// Len returns the number of registered entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
