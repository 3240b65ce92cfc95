package fhirconverter

import "fmt"

// FailureReason classifies why a record could not be mapped.
type FailureReason string

const (
	// ReasonMissingField means a required legacy field was absent or empty.
	ReasonMissingField FailureReason = "missing-required-field"
	// ReasonMalformedValue means a legacy value could not be parsed, for
	// example an unparsable date. Mapping never guesses.
	ReasonMalformedValue FailureReason = "malformed-value"
	// ReasonUnresolvedReference means the record references a legacy id that
	// was never registered in the reference index.
	ReasonUnresolvedReference FailureReason = "unresolved-reference"
)

// MappingFailure records one record that could not be transformed. Failures
// are recoverable: the record is excluded from the Bundle, the failure is
// recorded in the transformation report, and processing continues.
type MappingFailure struct {
	// ResourceType the record was being mapped to
	ResourceType ResourceType `json:"resourceType"`

	// LegacyID of the source record, if it could be extracted
	LegacyID string `json:"legacyId,omitempty"`

	// Reason classifies the failure
	Reason FailureReason `json:"reason"`

	// Detail is the human-readable explanation
	Detail string `json:"detail,omitempty"`
}

// String returns a human-readable representation of the failure.
func (f MappingFailure) String() string {
	id := f.LegacyID
	if id == "" {
		id = "?"
	}
	return fmt.Sprintf("%s[%s]: %s: %s", f.ResourceType, id, f.Reason, f.Detail)
}

// UnresolvedReferenceError is returned by the reference index when a
// (resourceType, legacyId) pair was never registered. It is never fabricated
// into an id silently.
type UnresolvedReferenceError struct {
	ResourceType ResourceType
	LegacyID     string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s with legacy id %q was never registered",
		e.ResourceType, e.LegacyID)
}

// batchError is a typed sentinel error for batch-level conditions.
type batchError string

func (e batchError) Error() string {
	return string(e)
}

// ErrMalformedBatch is returned when the input batch is not a recognizable
// record collection. This is the only condition that aborts a whole run;
// every other error is local to one record or one rule.
var ErrMalformedBatch = batchError("malformed input batch")
