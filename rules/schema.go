package rules

import (
	"fmt"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/terminology"
)

// requiredField builds an error rule checking that a nested field is
// present and non-empty.
func requiredField(target fc.ResourceType, field string) Rule {
	return Rule{
		ID:       fmt.Sprintf("schema-%s-%s-required", lowerType(target), field),
		Target:   target,
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			if fieldPresent(res, field) {
				return nil
			}
			return []Violation{{
				Field:   field,
				Message: fmt.Sprintf("required field %q is missing or empty", field),
			}}
		},
	}
}

// valueSetMembership builds an error rule checking that a string field,
// when present, belongs to its enumerated value set.
func valueSetMembership(target fc.ResourceType, field string) Rule {
	path := string(target) + "." + field
	return Rule{
		ID:       fmt.Sprintf("schema-%s-%s-valueset", lowerType(target), field),
		Target:   target,
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			code, ok := res.GetNestedString(field)
			if !ok || code == "" {
				return nil
			}
			if terminology.InValueSet(path, code) {
				return nil
			}
			return []Violation{{
				Field:   field,
				Message: fmt.Sprintf("value %q is not in the %s value set", code, path),
			}}
		},
	}
}

// idFormat checks that the resource id matches the FHIR id pattern.
func idFormat() Rule {
	return Rule{
		ID:       "schema-id-format",
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			id := res.ID()
			if id == "" {
				return []Violation{{Field: "id", Message: "resource has no id"}}
			}
			if fc.ValidID(id) {
				return nil
			}
			return []Violation{{
				Field:   "id",
				Message: fmt.Sprintf("id %q does not match the FHIR id pattern", id),
			}}
		},
	}
}

// dateFormat builds an error rule checking that a date or dateTime field,
// when present, parses as a FHIR date.
func dateFormat(target fc.ResourceType, field string) Rule {
	return Rule{
		ID:       fmt.Sprintf("schema-%s-%s-format", lowerType(target), field),
		Target:   target,
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			value, ok := res.GetNestedString(field)
			if !ok || value == "" {
				return nil
			}
			if fc.ValidFHIRDate(value) {
				return nil
			}
			return []Violation{{
				Field:   field,
				Message: fmt.Sprintf("value %q is not a valid FHIR date or dateTime", value),
			}}
		},
	}
}

// telecomSystem checks Patient.telecom entries against the ContactPoint
// system value set.
func telecomSystem() Rule {
	return Rule{
		ID:       "schema-patient-telecom-system",
		Target:   fc.TypePatient,
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			telecom, ok := res["telecom"].([]any)
			if !ok {
				return nil
			}
			var out []Violation
			for i, item := range telecom {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				system, _ := entry["system"].(string)
				if system == "" || terminology.InValueSet("ContactPoint.system", system) {
					continue
				}
				out = append(out, Violation{
					Field:   fmt.Sprintf("telecom[%d].system", i),
					Message: fmt.Sprintf("value %q is not in the ContactPoint.system value set", system),
				})
			}
			return out
		},
	}
}

// telecomEmailFormat checks that Patient email contact points look like
// addresses. A malformed email is a review item, not a hard failure.
func telecomEmailFormat() Rule {
	return Rule{
		ID:       "schema-patient-telecom-email-format",
		Target:   fc.TypePatient,
		Category: fc.CategorySchema,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			telecom, ok := res["telecom"].([]any)
			if !ok {
				return nil
			}
			var out []Violation
			for i, item := range telecom {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if system, _ := entry["system"].(string); system != "email" {
					continue
				}
				value, _ := entry["value"].(string)
				if value == "" || validEmail(value) {
					continue
				}
				out = append(out, Violation{
					Field:   fmt.Sprintf("telecom[%d].value", i),
					Message: fmt.Sprintf("%q does not look like an email address", value),
				})
			}
			return out
		},
	}
}

// validEmail is the minimal shape check: one "@" with content on both
// sides and a dot in the domain.
func validEmail(s string) bool {
	at := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			if at != -1 {
				return false
			}
			at = i
		}
	}
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	for i := 1; i < len(domain)-1; i++ {
		if domain[i] == '.' {
			return true
		}
	}
	return false
}

// medicationPresent checks that a MedicationRequest carries a medication,
// either as a CodeableConcept or as a reference.
func medicationPresent() Rule {
	return Rule{
		ID:       "schema-medicationrequest-medication-required",
		Target:   fc.TypeMedicationRequest,
		Category: fc.CategorySchema,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			if fieldPresent(res, "medicationCodeableConcept") || fieldPresent(res, "medicationReference") {
				return nil
			}
			return []Violation{{
				Field:   "medicationCodeableConcept",
				Message: "MedicationRequest carries neither medicationCodeableConcept nor medicationReference",
			}}
		},
	}
}

// schemaRules returns all schema-category rules in evaluation order.
func schemaRules() []Rule {
	return []Rule{
		idFormat(),

		valueSetMembership(fc.TypePatient, "gender"),
		dateFormat(fc.TypePatient, "birthDate"),
		telecomSystem(),
		telecomEmailFormat(),

		requiredField(fc.TypeEncounter, "status"),
		valueSetMembership(fc.TypeEncounter, "status"),
		requiredField(fc.TypeEncounter, "subject.reference"),
		requiredField(fc.TypeEncounter, "period.start"),
		dateFormat(fc.TypeEncounter, "period.start"),
		dateFormat(fc.TypeEncounter, "period.end"),

		requiredField(fc.TypeObservation, "status"),
		valueSetMembership(fc.TypeObservation, "status"),
		requiredField(fc.TypeObservation, "code"),
		requiredField(fc.TypeObservation, "subject.reference"),
		requiredField(fc.TypeObservation, "effectiveDateTime"),
		dateFormat(fc.TypeObservation, "effectiveDateTime"),

		requiredField(fc.TypeMedicationRequest, "status"),
		valueSetMembership(fc.TypeMedicationRequest, "status"),
		requiredField(fc.TypeMedicationRequest, "intent"),
		valueSetMembership(fc.TypeMedicationRequest, "intent"),
		requiredField(fc.TypeMedicationRequest, "subject.reference"),
		medicationPresent(),
		dateFormat(fc.TypeMedicationRequest, "authoredOn"),
	}
}

// fieldPresent reports whether a nested field exists and is non-empty.
// Empty strings, empty maps and empty slices count as absent.
func fieldPresent(res fc.Resource, field string) bool {
	v, ok := res.GetNested(field)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// lowerType lowercases a resource type name for rule ids.
func lowerType(t fc.ResourceType) string {
	s := string(t)
	if s == "" {
		return "any"
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
