// Package mapper implements the per-type resource mappers that turn legacy
// records into FHIR resources.
//
// Each mapper is a pure function from one legacy record plus the reference
// index to one or more FHIR resources, or a mapping failure. Mappers for
// dependent resource types resolve their parent references through the
// index; an unresolvable parent is a mapping failure, not a warning, because
// an orphan clinical resource is not safely usable downstream.
package mapper

import (
	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// Mapper maps one legacy record of a known shape into FHIR resources.
//
// Most mappers emit exactly one resource per record; the Observation mapper
// fans out one resource per result component, matching the source data
// model. A mapper registers the record's own legacy id in the index before
// mapping, so a record that fails later leaves an index entry with no
// Bundle resource; the cross-resource validation rules catch that case.
type Mapper interface {
	// ResourceType returns the FHIR resource type this mapper produces.
	ResourceType() fc.ResourceType

	// Map transforms one legacy record. Exactly one of the return values
	// is non-nil.
	Map(record fc.LegacyRecord, idx *refindex.Index) ([]fc.Resource, *fc.MappingFailure)
}

// All returns mappers for all supported resource types in topological
// mapping order: Patient, Encounter, Observation, MedicationRequest.
func All(sourceSystem string, translator *terminology.CodeTranslator) []Mapper {
	return []Mapper{
		NewPatientMapper(sourceSystem, translator),
		NewEncounterMapper(sourceSystem, translator),
		NewObservationMapper(sourceSystem, translator),
		NewMedicationRequestMapper(sourceSystem, translator),
	}
}

// ByType returns the mapper for one resource type, or nil for unsupported
// types.
func ByType(resourceType fc.ResourceType, sourceSystem string, translator *terminology.CodeTranslator) Mapper {
	for _, m := range All(sourceSystem, translator) {
		if m.ResourceType() == resourceType {
			return m
		}
	}
	return nil
}
