package mapper

import (
	"testing"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

const testSource = "legacy-ehr"

func newTestMappers(t *testing.T) (*PatientMapper, *EncounterMapper, *ObservationMapper, *MedicationRequestMapper) {
	t.Helper()
	tr := terminology.NewCodeTranslator(testSource)
	return NewPatientMapper(testSource, tr),
		NewEncounterMapper(testSource, tr),
		NewObservationMapper(testSource, tr),
		NewMedicationRequestMapper(testSource, tr)
}

func fullPatientRecord() fc.LegacyRecord {
	return fc.LegacyRecord{
		"patient_id":  "P001",
		"first_name":  "Jane",
		"middle_name": "Q",
		"last_name":   "Doe",
		"birth_date":  "1980-06-15",
		"gender":      "F",
		"mrn":         "MRN-7788",
		"active":      true,
		"address": map[string]any{
			"line1":       "12 Main St",
			"line2":       "Apt 3",
			"city":        "Springfield",
			"state_code":  "IL",
			"postal_code": "62701",
			"country":     "US",
		},
		"contact": map[string]any{
			"phone": "555-0101",
			"email": "jane@example.org",
		},
		"preferred_language": "Spanish",
	}
}

func TestPatientMapperFullRecord(t *testing.T) {
	pm, _, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)

	resources, failure := pm.Map(fullPatientRecord(), idx)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if len(resources) != 1 {
		t.Fatalf("got %d resources, want 1", len(resources))
	}
	p := resources[0]

	if p.Type() != "Patient" {
		t.Errorf("resourceType = %q", p.Type())
	}
	if !fc.ValidID(p.ID()) {
		t.Errorf("id %q invalid", p.ID())
	}
	if got, _ := p.GetString("gender"); got != "female" {
		t.Errorf("gender = %q, want female", got)
	}
	if got, _ := p.GetString("birthDate"); got != "1980-06-15" {
		t.Errorf("birthDate = %q", got)
	}

	names, ok := p["name"].([]any)
	if !ok || len(names) != 1 {
		t.Fatalf("name = %v", p["name"])
	}
	name := names[0].(map[string]any)
	if name["family"] != "Doe" {
		t.Errorf("family = %v", name["family"])
	}
	given := name["given"].([]any)
	if len(given) != 2 || given[0] != "Jane" || given[1] != "Q" {
		t.Errorf("given = %v", given)
	}

	identifiers := p["identifier"].([]any)
	if len(identifiers) != 2 {
		t.Fatalf("got %d identifiers, want legacy id + MRN", len(identifiers))
	}
	legacy := identifiers[0].(map[string]any)
	if legacy["system"] != terminology.LegacySystem(testSource) || legacy["value"] != "P001" {
		t.Errorf("legacy identifier = %v", legacy)
	}

	comms := p["communication"].([]any)
	lang := comms[0].(map[string]any)["language"].(map[string]any)
	coding := lang["coding"].([]any)[0].(map[string]any)
	if coding["code"] != "es" {
		t.Errorf("language code = %v, want es", coding["code"])
	}

	if !idx.Registered(fc.TypePatient, "P001") {
		t.Error("mapping did not register the patient in the index")
	}
}

func TestPatientMapperMissingID(t *testing.T) {
	pm, _, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)

	_, failure := pm.Map(fc.LegacyRecord{"first_name": "Jane"}, idx)
	if failure == nil {
		t.Fatal("expected failure for missing patient_id")
	}
	if failure.Reason != fc.ReasonMissingField {
		t.Errorf("Reason = %q, want %q", failure.Reason, fc.ReasonMissingField)
	}
}

func TestPatientMapperMalformedBirthDate(t *testing.T) {
	pm, _, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)

	record := fc.LegacyRecord{"patient_id": "P002", "birth_date": "June 1980"}
	_, failure := pm.Map(record, idx)
	if failure == nil {
		t.Fatal("expected failure for unparsable birth_date")
	}
	if failure.Reason != fc.ReasonMalformedValue {
		t.Errorf("Reason = %q, want %q", failure.Reason, fc.ReasonMalformedValue)
	}
	if failure.LegacyID != "P002" {
		t.Errorf("LegacyID = %q, want P002", failure.LegacyID)
	}
}

func TestPatientMapperMinimalRecord(t *testing.T) {
	pm, _, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)

	resources, failure := pm.Map(fc.LegacyRecord{"patient_id": "P003"}, idx)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	p := resources[0]

	if _, ok := p["name"]; ok {
		t.Error("nameless record should produce no name element")
	}
	if got, _ := p.GetString("gender"); got != "unknown" {
		t.Errorf("gender = %q, want unknown", got)
	}
	if active, ok := p["active"].(bool); !ok || !active {
		t.Error("active should default to true")
	}
}

func TestPatientMapperDeterministicID(t *testing.T) {
	pm, _, _, _ := newTestMappers(t)

	a, _ := pm.Map(fullPatientRecord(), refindex.New(testSource))
	b, _ := pm.Map(fullPatientRecord(), refindex.New(testSource))
	if a[0].ID() != b[0].ID() {
		t.Errorf("ids differ across runs: %q vs %q", a[0].ID(), b[0].ID())
	}
}
