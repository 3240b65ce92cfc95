package bundle

import (
	"strings"
	"testing"
	"time"

	fc "github.com/gofhir/converter"
)

var fixedTime = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func patientResource(id string) fc.Resource {
	return fc.Resource{"resourceType": "Patient", "id": id}
}

func encounterResource(id, patientID string) fc.Resource {
	return fc.Resource{
		"resourceType": "Encounter",
		"id":           id,
		"subject":      map[string]any{"reference": "Patient/" + patientID},
	}
}

func TestAssemblerBuildsBundle(t *testing.T) {
	asm := NewAssembler("legacy-ehr", fixedTime)
	asm.Add(fc.TypeEncounter, []fc.Resource{encounterResource("e1", "p1")})
	asm.Add(fc.TypePatient, []fc.Resource{patientResource("p1")})
	asm.Fail(fc.MappingFailure{
		ResourceType: fc.TypeObservation,
		LegacyID:     "O1",
		Reason:       fc.ReasonMissingField,
	})

	b, report := asm.Finalize()

	if b.Count() != 2 {
		t.Errorf("Count() = %d, want 2", b.Count())
	}
	if !b.Contains("Patient/p1") {
		t.Error("Contains(Patient/p1) = false")
	}
	if _, ok := b.Resource(fc.TypeEncounter, "e1"); !ok {
		t.Error("encounter lookup failed")
	}

	// All() orders types canonically no matter the insertion order.
	all := b.All()
	if all[0].Type() != "Patient" || all[1].Type() != "Encounter" {
		t.Errorf("All() order = %s, %s", all[0].Type(), all[1].Type())
	}

	if report.Attempted(fc.TypePatient) != 1 || report.Succeeded(fc.TypePatient) != 1 {
		t.Error("patient counts wrong")
	}
	if report.Failed(fc.TypeObservation) != 1 {
		t.Error("observation failure not counted")
	}
	if report.Clean() {
		t.Error("Clean() = true with a failure")
	}
}

func TestReportZeroCountsAlwaysPresent(t *testing.T) {
	report := NewTransformReport()
	for _, typ := range fc.MappingOrder {
		if report.Attempted(typ) != 0 || report.Succeeded(typ) != 0 || report.Failed(typ) != 0 {
			t.Errorf("%s counts not zeroed", typ)
		}
	}

	raw, err := report.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, typ := range fc.MappingOrder {
		if !strings.Contains(out, `"`+string(typ)+`":0`) {
			t.Errorf("marshaled report missing zero count for %s:\n%s", typ, out)
		}
	}
	if !strings.Contains(out, `"failures":[]`) {
		t.Errorf("empty failures should marshal as []:\n%s", out)
	}
}

func TestBundleDuplicateAddIgnored(t *testing.T) {
	asm := NewAssembler("legacy-ehr", fixedTime)
	asm.Add(fc.TypePatient, []fc.Resource{patientResource("p1")})
	asm.Add(fc.TypePatient, []fc.Resource{patientResource("p1")})

	b, report := asm.Finalize()
	if b.Count() != 1 {
		t.Errorf("Count() = %d, want 1: duplicate ids collapse", b.Count())
	}
	if report.Succeeded(fc.TypePatient) != 2 {
		t.Errorf("both records still count as mapped, got %d", report.Succeeded(fc.TypePatient))
	}
}

func TestBundleMarshalJSON(t *testing.T) {
	asm := NewAssembler("legacy-ehr", fixedTime)
	asm.Add(fc.TypePatient, []fc.Resource{patientResource("p1")})
	b, _ := asm.Finalize()

	raw, err := b.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)

	for _, want := range []string{
		`"resourceType":"Bundle"`,
		`"type":"collection"`,
		`"sourceSystem":"legacy-ehr"`,
		`"generatedAt":"2023-06-01T12:00:00Z"`,
		`"total":1`,
		`"resourceType":"Patient"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("marshaled bundle missing %s:\n%s", want, out)
		}
	}
}

func TestCountByType(t *testing.T) {
	asm := NewAssembler("legacy-ehr", fixedTime)
	asm.Add(fc.TypePatient, []fc.Resource{patientResource("p1")})
	b, _ := asm.Finalize()

	counts := b.CountByType()
	if counts[fc.TypePatient] != 1 {
		t.Errorf("patient count = %d", counts[fc.TypePatient])
	}
	if got, ok := counts[fc.TypeMedicationRequest]; !ok || got != 0 {
		t.Error("zero count entry missing for MedicationRequest")
	}
}

func TestFinalizeClosesAssembler(t *testing.T) {
	asm := NewAssembler("legacy-ehr", fixedTime)
	b, _ := asm.Finalize()

	asm.Add(fc.TypePatient, []fc.Resource{patientResource("late")})
	if b.Count() != 0 {
		t.Error("Add after Finalize mutated the bundle")
	}
}
