package rules

import (
	"testing"
	"time"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/bundle"
)

func testBundle(t *testing.T, resources ...fc.Resource) *bundle.Bundle {
	t.Helper()
	asm := bundle.NewAssembler("legacy-ehr", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	for _, res := range resources {
		asm.Add(fc.ResourceType(res.Type()), []fc.Resource{res})
	}
	b, _ := asm.Finalize()
	return b
}

func crossPatient() fc.Resource {
	return fc.Resource{"resourceType": "Patient", "id": "p1"}
}

func crossEncounter() fc.Resource {
	return fc.Resource{
		"resourceType": "Encounter",
		"id":           "e1",
		"status":       "finished",
		"subject":      map[string]any{"reference": "Patient/p1"},
		"period":       map[string]any{"start": "2023-03-01", "end": "2023-03-05"},
	}
}

func crossObservation() fc.Resource {
	return fc.Resource{
		"resourceType":      "Observation",
		"id":                "o1",
		"status":            "final",
		"subject":           map[string]any{"reference": "Patient/p1"},
		"encounter":         map[string]any{"reference": "Encounter/e1"},
		"effectiveDateTime": "2023-03-02",
	}
}

func TestReferenceResolvable(t *testing.T) {
	rule := referenceResolvable(fc.TypeEncounter, "subject")

	b := testBundle(t, crossPatient(), crossEncounter())
	if issues := rule.ApplyCross(crossEncounter(), b); len(issues) != 0 {
		t.Errorf("resolvable reference flagged: %v", issues)
	}

	// Same encounter, but the patient never made it into the Bundle.
	orphaned := testBundle(t, crossEncounter())
	issues := rule.ApplyCross(crossEncounter(), orphaned)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want exactly one per absent target", len(issues))
	}
	if issues[0].Severity != fc.SeverityError {
		t.Errorf("severity = %q, want error", issues[0].Severity)
	}
	if issues[0].ResourceType != "Encounter" || issues[0].ResourceID != "e1" {
		t.Errorf("issue filed on %s/%s, want the referencing resource", issues[0].ResourceType, issues[0].ResourceID)
	}
}

func TestReferenceResolvableMalformedRef(t *testing.T) {
	rule := referenceResolvable(fc.TypeObservation, "subject")

	obs := crossObservation()
	obs["subject"] = map[string]any{"reference": "http://elsewhere/Patient/p1"}
	b := testBundle(t, crossPatient(), obs)

	if issues := rule.ApplyCross(obs, b); len(issues) != 1 {
		t.Error("absolute reference not flagged as malformed")
	}
}

func TestObservationSubjectConsistency(t *testing.T) {
	rule := observationSubjectConsistency()

	consistent := testBundle(t, crossPatient(), crossEncounter(), crossObservation())
	if issues := rule.ApplyCross(crossObservation(), consistent); len(issues) != 0 {
		t.Errorf("consistent observation flagged: %v", issues)
	}

	mismatched := crossObservation()
	mismatched["subject"] = map[string]any{"reference": "Patient/p2"}
	b := testBundle(t, crossPatient(), crossEncounter(), mismatched)

	issues := rule.ApplyCross(mismatched, b)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityError {
		t.Errorf("cross-patient observation: %v, want one error", issues)
	}
}

func TestObservationWithinEncounterPeriod(t *testing.T) {
	rule := observationWithinEncounterPeriod()

	tests := []struct {
		name      string
		effective string
		issues    int
	}{
		{"inside", "2023-03-02", 0},
		{"on start", "2023-03-01", 0},
		{"before", "2023-02-20", 1},
		{"after", "2023-03-10", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := crossObservation()
			obs["effectiveDateTime"] = tt.effective
			b := testBundle(t, crossPatient(), crossEncounter(), obs)

			issues := rule.ApplyCross(obs, b)
			if len(issues) != tt.issues {
				t.Fatalf("got %d issues, want %d", len(issues), tt.issues)
			}
			if tt.issues > 0 && issues[0].Severity != fc.SeverityWarning {
				t.Errorf("severity = %q, want warning", issues[0].Severity)
			}
		})
	}
}

func TestCrossRulesSkipResourcesWithoutReferences(t *testing.T) {
	b := testBundle(t, crossPatient())

	obs := fc.Resource{"resourceType": "Observation", "id": "o9", "status": "final"}
	for _, rule := range crossRules() {
		if !rule.AppliesTo(fc.TypeObservation) {
			continue
		}
		if issues := rule.ApplyCross(obs, b); len(issues) != 0 {
			t.Errorf("rule %s fired on a reference-free observation: %v", rule.ID, issues)
		}
	}
}
