package mapper

import (
	"errors"
	"fmt"
	"strings"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// failMissing builds a missing-required-field failure.
func failMissing(t fc.ResourceType, legacyID, field string) *fc.MappingFailure {
	return &fc.MappingFailure{
		ResourceType: t,
		LegacyID:     legacyID,
		Reason:       fc.ReasonMissingField,
		Detail:       fmt.Sprintf("required field %q is absent or empty", field),
	}
}

// failMalformed builds a malformed-value failure.
func failMalformed(t fc.ResourceType, legacyID, field string, err error) *fc.MappingFailure {
	return &fc.MappingFailure{
		ResourceType: t,
		LegacyID:     legacyID,
		Reason:       fc.ReasonMalformedValue,
		Detail:       fmt.Sprintf("field %q: %v", field, err),
	}
}

// failUnresolved builds an unresolved-reference failure from a resolve error.
func failUnresolved(t fc.ResourceType, legacyID string, err error) *fc.MappingFailure {
	detail := err.Error()
	var unresolved *fc.UnresolvedReferenceError
	if errors.As(err, &unresolved) {
		detail = fmt.Sprintf("%s with legacy id %q was never registered",
			unresolved.ResourceType, unresolved.LegacyID)
	}
	return &fc.MappingFailure{
		ResourceType: t,
		LegacyID:     legacyID,
		Reason:       fc.ReasonUnresolvedReference,
		Detail:       detail,
	}
}

// resolveSubject resolves the parent Patient reference for a dependent
// record.
func resolveSubject(idx *refindex.Index, t fc.ResourceType, legacyID, patientLegacyID string) (string, *fc.MappingFailure) {
	ref, err := idx.ResolveReference(fc.TypePatient, patientLegacyID)
	if err != nil {
		return "", failUnresolved(t, legacyID, err)
	}
	return ref, nil
}

// legacyIdentifier builds the identifier entry that tags a resource with
// its original legacy id and source system.
func legacyIdentifier(sourceSystem, value string) map[string]any {
	return map[string]any{
		"system": terminology.LegacySystem(sourceSystem),
		"value":  value,
	}
}

// codingMap converts a terminology coding to its resource representation.
func codingMap(c terminology.Coding) map[string]any {
	m := map[string]any{
		"system": c.System,
		"code":   c.Code,
	}
	if c.Display != "" {
		m["display"] = c.Display
	}
	return m
}

// codeableConcept builds a CodeableConcept map with optional codings.
func codeableConcept(text string, codings ...terminology.Coding) map[string]any {
	cc := map[string]any{}
	if text != "" {
		cc["text"] = text
	}
	if len(codings) > 0 {
		list := make([]any, 0, len(codings))
		for _, c := range codings {
			list = append(list, codingMap(c))
		}
		cc["coding"] = list
	}
	return cc
}

// reference builds a Reference map from a reference string.
func reference(ref string) map[string]any {
	return map[string]any{"reference": ref}
}

// asInt coerces a record value to int. JSON numbers arrive as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// asBool coerces a record value to bool.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// joinNonEmpty joins non-empty parts with single spaces.
func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, " ")
}
