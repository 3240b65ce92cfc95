package mapper

import (
	"testing"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

func fullEncounterRecord() fc.LegacyRecord {
	return fc.LegacyRecord{
		"encounter_id":    "E100",
		"patient_id":      "P001",
		"status":          "completed",
		"type":            "Inpatient",
		"encounter_date":  "2023-03-01",
		"discharge_date":  "2023-03-05",
		"location":        "Ward 4B",
		"chief_complaint": "chest pain",
		"provider":        map[string]any{"name": "Dr. Chen"},
		"diagnoses": []any{
			map[string]any{"diagnosis": "Hypertension", "code": "I10", "type": "ICD-10"},
			map[string]any{"diagnosis": "Diabetes", "code": "250.00", "type": "ICD-9"},
		},
	}
}

func registerPatient(t *testing.T, idx *refindex.Index, legacyID string) string {
	t.Helper()
	return idx.Register(fc.TypePatient, legacyID)
}

func TestEncounterMapperFullRecord(t *testing.T) {
	_, em, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)
	patientID := registerPatient(t, idx, "P001")

	resources, failure := em.Map(fullEncounterRecord(), idx)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	e := resources[0]

	if got, _ := e.GetString("status"); got != "finished" {
		t.Errorf("status = %q, want finished", got)
	}
	if got := e.Reference("subject"); got != "Patient/"+patientID {
		t.Errorf("subject = %q", got)
	}
	if got, _ := e.GetNestedString("period.start"); got != "2023-03-01" {
		t.Errorf("period.start = %q", got)
	}
	if got, _ := e.GetNestedString("period.end"); got != "2023-03-05" {
		t.Errorf("period.end = %q", got)
	}
	if got, _ := e.GetNestedString("class.code"); got != "IMP" {
		t.Errorf("class.code = %q, want IMP", got)
	}

	diagnoses := e["diagnosis"].([]any)
	if len(diagnoses) != 2 {
		t.Fatalf("got %d diagnoses, want 2", len(diagnoses))
	}
	second := diagnoses[1].(map[string]any)
	if second["rank"] != 2 {
		t.Errorf("rank = %v, want 2", second["rank"])
	}
	coding := second["condition"].(map[string]any)["coding"].([]any)[0].(map[string]any)
	if coding["system"] != terminology.SystemICD9CM {
		t.Errorf("ICD-9 entry coded in %v", coding["system"])
	}
}

func TestEncounterMapperUnresolvedPatient(t *testing.T) {
	_, em, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)

	_, failure := em.Map(fullEncounterRecord(), idx)
	if failure == nil {
		t.Fatal("expected failure for unregistered patient")
	}
	if failure.Reason != fc.ReasonUnresolvedReference {
		t.Errorf("Reason = %q, want %q", failure.Reason, fc.ReasonUnresolvedReference)
	}
	if failure.LegacyID != "E100" {
		t.Errorf("LegacyID = %q, want E100", failure.LegacyID)
	}

	// The encounter registered itself before failing, so later records can
	// still resolve it and validation flags the missing resource.
	if !idx.Registered(fc.TypeEncounter, "E100") {
		t.Error("failed encounter left no index entry")
	}
}

func TestEncounterMapperMissingDate(t *testing.T) {
	_, em, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)
	registerPatient(t, idx, "P001")

	record := fullEncounterRecord()
	delete(record, "encounter_date")

	_, failure := em.Map(record, idx)
	if failure == nil {
		t.Fatal("expected failure for missing encounter_date")
	}
	if failure.Reason != fc.ReasonMissingField {
		t.Errorf("Reason = %q, want %q", failure.Reason, fc.ReasonMissingField)
	}
}

func TestEncounterMapperUnknownStatus(t *testing.T) {
	_, em, _, _ := newTestMappers(t)
	idx := refindex.New(testSource)
	registerPatient(t, idx, "P001")

	record := fullEncounterRecord()
	record["status"] = "mystery"

	resources, failure := em.Map(record, idx)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if got, _ := resources[0].GetString("status"); got != "unknown" {
		t.Errorf("status = %q, want unknown", got)
	}
}
