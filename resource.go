package fhirconverter

import "strings"

// ResourceType identifies one of the supported FHIR resource types.
type ResourceType string

// Supported resource types, in topological mapping order.
const (
	TypePatient           ResourceType = "Patient"
	TypeEncounter         ResourceType = "Encounter"
	TypeObservation       ResourceType = "Observation"
	TypeMedicationRequest ResourceType = "MedicationRequest"
)

// MappingOrder lists the supported resource types in the order they must be
// mapped: Patients before Encounters before Observations/MedicationRequests.
var MappingOrder = []ResourceType{
	TypePatient,
	TypeEncounter,
	TypeObservation,
	TypeMedicationRequest,
}

// String returns the type name.
func (t ResourceType) String() string {
	return string(t)
}

// IsSupported returns true if this is one of the four supported types.
func (t ResourceType) IsSupported() bool {
	switch t {
	case TypePatient, TypeEncounter, TypeObservation, TypeMedicationRequest:
		return true
	default:
		return false
	}
}

// LegacyRecord is one source-system entity prior to transformation.
// It is an untyped field-to-value mapping; absence of expected fields is a
// transformation-time concern, not enforced here.
type LegacyRecord map[string]any

// GetString returns a string field from the record.
func (r LegacyRecord) GetString(field string) (string, bool) {
	v, ok := r[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetMap returns a nested mapping field from the record.
func (r LegacyRecord) GetMap(field string) (map[string]any, bool) {
	v, ok := r[field]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// GetSlice returns an array field from the record.
func (r LegacyRecord) GetSlice(field string) ([]any, bool) {
	v, ok := r[field]
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// Batch maps a resource-type name to its ordered legacy records, as handed
// over by the extraction collaborator.
type Batch map[string][]LegacyRecord

// Resource is one mapped FHIR resource. The map always carries at least
// "resourceType" and "id"; references to other resources are strings of the
// form "<ResourceType>/<id>".
type Resource map[string]any

// Type returns the resourceType field, or "" if absent.
func (r Resource) Type() string {
	if rt, ok := r["resourceType"].(string); ok {
		return rt
	}
	return ""
}

// ID returns the id field, or "" if absent.
func (r Resource) ID() string {
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

// GetString returns a top-level string field.
func (r Resource) GetString(field string) (string, bool) {
	v, ok := r[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetNested returns a nested field value using dot notation, for example
// "period.start" or "subject.reference".
func (r Resource) GetNested(path string) (any, bool) {
	current := any(map[string]any(r))
	start := 0

	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				key := path[start:i]
				m, ok := current.(map[string]any)
				if !ok {
					return nil, false
				}
				current, ok = m[key]
				if !ok {
					return nil, false
				}
			}
			start = i + 1
		}
	}

	return current, true
}

// GetNestedString returns a nested string field using dot notation.
func (r Resource) GetNestedString(path string) (string, bool) {
	v, ok := r.GetNested(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Reference returns the reference string at the given field (for example
// "subject" or "encounter"), or "" if the field carries no reference.
func (r Resource) Reference(field string) string {
	ref, _ := r.GetNestedString(field + ".reference")
	return ref
}

// FormatReference builds a "<ResourceType>/<id>" reference string.
func FormatReference(resourceType ResourceType, id string) string {
	return string(resourceType) + "/" + id
}

// ParseReference splits a "<ResourceType>/<id>" reference string.
// Returns ok=false for anything that is not a relative two-part reference.
func ParseReference(ref string) (resourceType ResourceType, id string, ok bool) {
	idx := strings.IndexByte(ref, '/')
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", false
	}
	if strings.IndexByte(ref[idx+1:], '/') != -1 {
		return "", "", false
	}
	return ResourceType(ref[:idx]), ref[idx+1:], true
}

// ValidID reports whether id matches the FHIR id pattern
// [A-Za-z0-9\-\.]{1,64}.
func ValidID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if !((c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '.') {
			return false
		}
	}
	return true
}
