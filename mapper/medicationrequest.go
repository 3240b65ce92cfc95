package mapper

import (
	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// MedicationRequestMapper maps legacy medication orders to FHIR
// MedicationRequest resources.
type MedicationRequestMapper struct {
	sourceSystem string
	translator   *terminology.CodeTranslator
}

// NewMedicationRequestMapper creates a MedicationRequest mapper.
func NewMedicationRequestMapper(sourceSystem string, translator *terminology.CodeTranslator) *MedicationRequestMapper {
	return &MedicationRequestMapper{sourceSystem: sourceSystem, translator: translator}
}

// ResourceType returns fc.TypeMedicationRequest.
func (m *MedicationRequestMapper) ResourceType() fc.ResourceType {
	return fc.TypeMedicationRequest
}

// Map transforms one legacy medication record.
func (m *MedicationRequestMapper) Map(record fc.LegacyRecord, idx *refindex.Index) ([]fc.Resource, *fc.MappingFailure) {
	legacyID, ok := record.GetString("medication_id")
	if !ok || legacyID == "" {
		return nil, failMissing(fc.TypeMedicationRequest, "", "medication_id")
	}

	fhirID := idx.Register(fc.TypeMedicationRequest, legacyID)

	patientLegacyID, ok := record.GetString("patient_id")
	if !ok || patientLegacyID == "" {
		return nil, failMissing(fc.TypeMedicationRequest, legacyID, "patient_id")
	}
	subjectRef, failure := resolveSubject(idx, fc.TypeMedicationRequest, legacyID, patientLegacyID)
	if failure != nil {
		return nil, failure
	}

	name, ok := record.GetString("medication_name")
	if !ok || name == "" {
		return nil, failMissing(fc.TypeMedicationRequest, legacyID, "medication_name")
	}

	status, _ := record.GetString("status")

	req := fc.Resource{
		"resourceType":              "MedicationRequest",
		"id":                        fhirID,
		"identifier":                []any{legacyIdentifier(m.sourceSystem, legacyID)},
		"status":                    m.translator.MedicationStatus(status),
		"intent":                    "order",
		"medicationCodeableConcept": codeableConcept(name),
		"subject":                   reference(subjectRef),
	}

	if encLegacyID, ok := record.GetString("encounter_id"); ok && encLegacyID != "" {
		ref, err := idx.ResolveReference(fc.TypeEncounter, encLegacyID)
		if err != nil {
			return nil, failUnresolved(fc.TypeMedicationRequest, legacyID, err)
		}
		req["encounter"] = reference(ref)
	}

	if authored, ok := record.GetString("prescription_date"); ok && authored != "" {
		canonical, err := fc.CanonicalizeDate(authored)
		if err != nil {
			return nil, failMalformed(fc.TypeMedicationRequest, legacyID, "prescription_date", err)
		}
		req["authoredOn"] = canonical
	}

	if dosage := m.mapDosage(record); dosage != nil {
		req["dosageInstruction"] = []any{dosage}
	}

	if prescriber, ok := record.GetString("prescriber"); ok && prescriber != "" {
		req["requester"] = map[string]any{"display": prescriber}
	}

	if dispense := m.mapDispenseRequest(record); len(dispense) > 0 {
		req["dispenseRequest"] = dispense
	}

	return []fc.Resource{req}, nil
}

// mapDosage builds the dosage instruction from the legacy dose, route and
// frequency fields, or nil when all three are empty.
func (m *MedicationRequestMapper) mapDosage(record fc.LegacyRecord) map[string]any {
	dose, _ := record.GetString("dose")
	route, _ := record.GetString("route")
	frequency, _ := record.GetString("frequency")

	text := joinNonEmpty(dose, route, frequency)
	if text == "" {
		return nil
	}

	dosage := map[string]any{"text": text}
	if route != "" {
		dosage["route"] = codeableConcept(route)
	}
	if dose != "" {
		dosage["doseAndRate"] = []any{map[string]any{
			"type": codeableConcept("Ordered"),
			"text": dose,
		}}
	}
	return dosage
}

func (m *MedicationRequestMapper) mapDispenseRequest(record fc.LegacyRecord) map[string]any {
	dispense := map[string]any{}

	if refills, ok := asInt(record["refills"]); ok {
		dispense["numberOfRepeatsAllowed"] = refills
	}
	if days, ok := asInt(record["duration_days"]); ok && days > 0 {
		dispense["expectedSupplyDuration"] = map[string]any{
			"value":  days,
			"unit":   "days",
			"system": terminology.SystemUCUM,
			"code":   "d",
		}
	}
	return dispense
}
