package rules

import (
	"testing"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/terminology"
)

func TestEncounterPeriodOrderRule(t *testing.T) {
	rule := encounterPeriodOrder()

	tests := []struct {
		name   string
		start  string
		end    string
		issues int
	}{
		{"ordered", "2023-03-01", "2023-03-05", 0},
		{"same day", "2023-03-01", "2023-03-01", 0},
		{"reversed", "2023-03-05", "2023-03-01", 1},
		{"no end", "2023-03-01", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := map[string]any{"start": tt.start}
			if tt.end != "" {
				period["end"] = tt.end
			}
			enc := fc.Resource{"resourceType": "Encounter", "id": "e1", "period": period}

			issues := rule.Apply(enc)
			if len(issues) != tt.issues {
				t.Fatalf("got %d issues, want %d", len(issues), tt.issues)
			}
			if tt.issues > 0 && issues[0].Severity != fc.SeverityError {
				t.Errorf("severity = %q, want error", issues[0].Severity)
			}
		})
	}
}

func TestMedicationDosageSeverityDependsOnStatus(t *testing.T) {
	rule := medicationDosagePresent()

	active := fc.Resource{"resourceType": "MedicationRequest", "id": "m1", "status": "active"}
	issues := rule.Apply(active)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityError {
		t.Errorf("active without dosage: %v, want one error", issues)
	}

	stopped := fc.Resource{"resourceType": "MedicationRequest", "id": "m2", "status": "stopped"}
	issues = rule.Apply(stopped)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityWarning {
		t.Errorf("stopped without dosage: %v, want one warning", issues)
	}

	withDosage := fc.Resource{
		"resourceType":      "MedicationRequest",
		"id":                "m3",
		"status":            "active",
		"dosageInstruction": []any{map[string]any{"text": "10 mg daily"}},
	}
	if issues := rule.Apply(withDosage); len(issues) != 0 {
		t.Errorf("dosage present but flagged: %v", issues)
	}
}

func TestObservationValuePresentRule(t *testing.T) {
	rule := observationValuePresent()

	tests := []struct {
		name   string
		extra  map[string]any
		issues int
	}{
		{"quantity", map[string]any{"valueQuantity": map[string]any{"value": 7.2}}, 0},
		{"string", map[string]any{"valueString": "positive"}, 0},
		{"data absent", map[string]any{"dataAbsentReason": map[string]any{"text": "not done"}}, 0},
		{"nothing", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := fc.Resource{"resourceType": "Observation", "id": "o1"}
			for k, v := range tt.extra {
				obs[k] = v
			}
			if got := len(rule.Apply(obs)); got != tt.issues {
				t.Errorf("got %d issues, want %d", got, tt.issues)
			}
		})
	}
}

func TestObservationCodeQualityRule(t *testing.T) {
	rule := observationCodeQuality()

	tests := []struct {
		name   string
		code   map[string]any
		issues int
	}{
		{"text only", map[string]any{"text": "Heart rate"}, 0},
		{"coding only", map[string]any{"coding": []any{map[string]any{"code": "8867-4"}}}, 0},
		{"empty concept", map[string]any{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := fc.Resource{"resourceType": "Observation", "id": "o1", "code": tt.code}
			if got := len(rule.Apply(obs)); got != tt.issues {
				t.Errorf("got %d issues, want %d", got, tt.issues)
			}
		})
	}
}

func TestUntranslatedCodeRule(t *testing.T) {
	rule := untranslatedCode()

	obs := fc.Resource{
		"resourceType": "Observation",
		"id":           "o1",
		"code": map[string]any{
			"coding": []any{map[string]any{
				"system": terminology.LegacySystem("legacy-ehr"),
				"code":   "LOCAL-42",
			}},
		},
	}
	issues := rule.Apply(obs)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityWarning {
		t.Fatalf("legacy-coded observation: %v, want one warning", issues)
	}

	obs["code"] = map[string]any{
		"coding": []any{map[string]any{"system": terminology.SystemLOINC, "code": "8867-4"}},
	}
	if issues := rule.Apply(obs); len(issues) != 0 {
		t.Errorf("LOINC-coded observation flagged: %v", issues)
	}
}

func TestPlausibleQuantityRule(t *testing.T) {
	rule := plausibleQuantity()

	observation := func(value float64) fc.Resource {
		return fc.Resource{
			"resourceType": "Observation",
			"id":           "o1",
			"code": map[string]any{
				"coding": []any{map[string]any{"system": terminology.SystemLOINC, "code": "8867-4"}},
			},
			"valueQuantity": map[string]any{"value": value, "unit": "/min"},
		}
	}

	if issues := rule.Apply(observation(72)); len(issues) != 0 {
		t.Errorf("plausible heart rate flagged: %v", issues)
	}

	issues := rule.Apply(observation(999))
	if len(issues) != 1 {
		t.Fatalf("implausible heart rate not flagged")
	}
	if issues[0].Severity != fc.SeverityWarning {
		t.Errorf("severity = %q, want warning: implausible values are review items", issues[0].Severity)
	}

	// Codes without a configured range never fire.
	noRange := observation(999)
	noRange["code"] = map[string]any{
		"coding": []any{map[string]any{"system": terminology.SystemLOINC, "code": "0000-0"}},
	}
	if issues := rule.Apply(noRange); len(issues) != 0 {
		t.Errorf("unknown code flagged: %v", issues)
	}
}

func TestDisplayOnlyReferenceRule(t *testing.T) {
	obsRule := displayOnlyReference(fc.TypeObservation, "performer")

	obs := fc.Resource{
		"resourceType": "Observation",
		"id":           "o1",
		"performer":    []any{map[string]any{"display": "Central Lab"}},
	}
	issues := obsRule.Apply(obs)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityWarning {
		t.Fatalf("display-only performer: %v, want one warning", issues)
	}
	if issues[0].Field != "performer[0]" {
		t.Errorf("Field = %q", issues[0].Field)
	}

	obs["performer"] = []any{map[string]any{
		"reference": "Practitioner/pr1",
		"display":   "Central Lab",
	}}
	if issues := obsRule.Apply(obs); len(issues) != 0 {
		t.Errorf("resolvable performer flagged: %v", issues)
	}

	medRule := displayOnlyReference(fc.TypeMedicationRequest, "requester")
	med := fc.Resource{
		"resourceType": "MedicationRequest",
		"id":           "m1",
		"requester":    map[string]any{"display": "Dr. House"},
	}
	if issues := medRule.Apply(med); len(issues) != 1 {
		t.Errorf("display-only requester: %v, want one warning", issues)
	}

	encRule := displayOnlyReference(fc.TypeEncounter, "participant")
	enc := fc.Resource{
		"resourceType": "Encounter",
		"id":           "e1",
		"participant": []any{map[string]any{
			"individual": map[string]any{"display": "Dr. Wilson"},
		}},
	}
	if issues := encRule.Apply(enc); len(issues) != 1 {
		t.Errorf("display-only participant: %v, want one warning", issues)
	}
}

func TestICD9DeprecatedRule(t *testing.T) {
	rule := icd9Deprecated()

	enc := fc.Resource{
		"resourceType": "Encounter",
		"id":           "e1",
		"diagnosis": []any{
			map[string]any{
				"condition": map[string]any{
					"display": "Diabetes",
					"coding": []any{map[string]any{
						"system": terminology.SystemICD9CM,
						"code":   "250.00",
					}},
				},
				"rank": 1,
			},
		},
	}
	issues := rule.Apply(enc)
	if len(issues) != 1 || issues[0].Severity != fc.SeverityInfo {
		t.Errorf("ICD-9 diagnosis: %v, want one info issue", issues)
	}
}
