package rules

import (
	"fmt"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/bundle"
)

// referenceResolvable checks that a reference field on a resource points
// at a resource present in the Bundle. Exactly one error is produced per
// absent target, on the referencing resource.
func referenceResolvable(target fc.ResourceType, field string) Rule {
	return Rule{
		ID:       fmt.Sprintf("cross-%s-%s-resolvable", lowerType(target), field),
		Target:   target,
		Category: fc.CategoryCross,
		Severity: fc.SeverityError,
		CrossCheck: func(res fc.Resource, b *bundle.Bundle) []Violation {
			ref := res.Reference(field)
			if ref == "" {
				return nil
			}
			if _, _, ok := fc.ParseReference(ref); !ok {
				return []Violation{{
					Field:   field + ".reference",
					Message: fmt.Sprintf("%q is not a relative Type/id reference", ref),
				}}
			}
			if b.Contains(ref) {
				return nil
			}
			return []Violation{{
				Field:   field + ".reference",
				Message: fmt.Sprintf("referenced resource %q is not in the Bundle", ref),
			}}
		},
	}
}

// observationSubjectConsistency checks that an Observation's subject
// matches the subject of the Encounter it points at. A lab result filed
// under one patient's visit but another patient's chart is a data
// integrity failure.
func observationSubjectConsistency() Rule {
	return Rule{
		ID:       "cross-observation-subject-consistency",
		Target:   fc.TypeObservation,
		Category: fc.CategoryCross,
		Severity: fc.SeverityError,
		CrossCheck: func(res fc.Resource, b *bundle.Bundle) []Violation {
			encRef := res.Reference("encounter")
			if encRef == "" {
				return nil
			}
			t, id, ok := fc.ParseReference(encRef)
			if !ok || t != fc.TypeEncounter {
				return nil
			}
			enc, ok := b.Resource(fc.TypeEncounter, id)
			if !ok {
				return nil
			}

			obsSubject := res.Reference("subject")
			encSubject := enc.Reference("subject")
			if obsSubject == "" || encSubject == "" || obsSubject == encSubject {
				return nil
			}
			return []Violation{{
				Field: "subject.reference",
				Message: fmt.Sprintf("Observation subject %q does not match Encounter subject %q",
					obsSubject, encSubject),
			}}
		},
	}
}

// observationWithinEncounterPeriod checks that an Observation's effective
// time falls inside the period of its Encounter. Out-of-window results are
// warnings, since source timestamps commonly carry clock skew.
func observationWithinEncounterPeriod() Rule {
	return Rule{
		ID:       "cross-observation-within-encounter-period",
		Target:   fc.TypeObservation,
		Category: fc.CategoryCross,
		Severity: fc.SeverityWarning,
		CrossCheck: func(res fc.Resource, b *bundle.Bundle) []Violation {
			encRef := res.Reference("encounter")
			if encRef == "" {
				return nil
			}
			t, id, ok := fc.ParseReference(encRef)
			if !ok || t != fc.TypeEncounter {
				return nil
			}
			enc, ok := b.Resource(fc.TypeEncounter, id)
			if !ok {
				return nil
			}

			effectiveRaw, ok := res.GetString("effectiveDateTime")
			if !ok {
				return nil
			}
			effective, err := fc.ParseFHIRTime(effectiveRaw)
			if err != nil {
				return nil
			}

			if startRaw, ok := enc.GetNestedString("period.start"); ok && startRaw != "" {
				if start, err := fc.ParseFHIRTime(startRaw); err == nil && effective.Before(start) {
					return []Violation{{
						Field: "effectiveDateTime",
						Message: fmt.Sprintf("effective time %q precedes the encounter period start %q",
							effectiveRaw, startRaw),
					}}
				}
			}
			if endRaw, ok := enc.GetNestedString("period.end"); ok && endRaw != "" {
				if end, err := fc.ParseFHIRTime(endRaw); err == nil && effective.After(end) {
					return []Violation{{
						Field: "effectiveDateTime",
						Message: fmt.Sprintf("effective time %q is after the encounter period end %q",
							effectiveRaw, endRaw),
					}}
				}
			}
			return nil
		},
	}
}

// crossRules returns all cross-resource rules in evaluation order.
func crossRules() []Rule {
	return []Rule{
		referenceResolvable(fc.TypeEncounter, "subject"),
		referenceResolvable(fc.TypeObservation, "subject"),
		referenceResolvable(fc.TypeObservation, "encounter"),
		referenceResolvable(fc.TypeMedicationRequest, "subject"),
		referenceResolvable(fc.TypeMedicationRequest, "encounter"),
		observationSubjectConsistency(),
		observationWithinEncounterPeriod(),
	}
}
