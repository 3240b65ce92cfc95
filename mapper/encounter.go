package mapper

import (
	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// EncounterMapper maps legacy encounter records to FHIR Encounter
// resources. Encounters reference exactly one Patient; the Patient must be
// registered before the Encounter maps.
type EncounterMapper struct {
	sourceSystem string
	translator   *terminology.CodeTranslator
}

// NewEncounterMapper creates an Encounter mapper.
func NewEncounterMapper(sourceSystem string, translator *terminology.CodeTranslator) *EncounterMapper {
	return &EncounterMapper{sourceSystem: sourceSystem, translator: translator}
}

// ResourceType returns fc.TypeEncounter.
func (m *EncounterMapper) ResourceType() fc.ResourceType {
	return fc.TypeEncounter
}

// Map transforms one legacy encounter record.
func (m *EncounterMapper) Map(record fc.LegacyRecord, idx *refindex.Index) ([]fc.Resource, *fc.MappingFailure) {
	legacyID, ok := record.GetString("encounter_id")
	if !ok || legacyID == "" {
		return nil, failMissing(fc.TypeEncounter, "", "encounter_id")
	}

	fhirID := idx.Register(fc.TypeEncounter, legacyID)

	patientLegacyID, ok := record.GetString("patient_id")
	if !ok || patientLegacyID == "" {
		return nil, failMissing(fc.TypeEncounter, legacyID, "patient_id")
	}
	subjectRef, failure := resolveSubject(idx, fc.TypeEncounter, legacyID, patientLegacyID)
	if failure != nil {
		return nil, failure
	}

	status, _ := record.GetString("status")
	visitType, _ := record.GetString("type")

	encounter := fc.Resource{
		"resourceType": "Encounter",
		"id":           fhirID,
		"identifier":   []any{legacyIdentifier(m.sourceSystem, legacyID)},
		"status":       m.translator.EncounterStatus(status),
		"class":        codingMap(m.translator.EncounterClass(visitType)),
		"subject":      reference(subjectRef),
	}
	if visitType != "" {
		encounter["type"] = []any{codeableConcept(visitType)}
	}

	start, ok := record.GetString("encounter_date")
	if !ok || start == "" {
		return nil, failMissing(fc.TypeEncounter, legacyID, "encounter_date")
	}
	canonicalStart, err := fc.CanonicalizeDate(start)
	if err != nil {
		return nil, failMalformed(fc.TypeEncounter, legacyID, "encounter_date", err)
	}
	period := map[string]any{"start": canonicalStart}

	if end, ok := record.GetString("discharge_date"); ok && end != "" {
		canonicalEnd, err := fc.CanonicalizeDate(end)
		if err != nil {
			return nil, failMalformed(fc.TypeEncounter, legacyID, "discharge_date", err)
		}
		period["end"] = canonicalEnd
	}
	encounter["period"] = period

	if diagnoses := m.mapDiagnoses(record); len(diagnoses) > 0 {
		encounter["diagnosis"] = diagnoses
	}

	if location, ok := record.GetString("location"); ok && location != "" {
		encounter["location"] = []any{map[string]any{
			"location": map[string]any{"display": location},
		}}
	}

	if provider, ok := record.GetMap("provider"); ok {
		if name, ok := provider["name"].(string); ok && name != "" {
			encounter["participant"] = []any{map[string]any{
				"type": []any{codeableConcept("", terminology.Coding{
					System:  terminology.SystemParticipation,
					Code:    "PPRF",
					Display: "Primary Performer",
				})},
				"individual": map[string]any{"display": name},
			}}
		}
	}

	if complaint, ok := record.GetString("chief_complaint"); ok && complaint != "" {
		encounter["reasonCode"] = []any{codeableConcept(complaint)}
	}

	return []fc.Resource{encounter}, nil
}

// mapDiagnoses maps the legacy diagnoses array, coding each entry in
// ICD-10-CM or, for records typed "ICD-9", the deprecated ICD-9-CM system.
func (m *EncounterMapper) mapDiagnoses(record fc.LegacyRecord) []any {
	raw, ok := record.GetSlice("diagnoses")
	if !ok {
		return nil
	}

	var out []any
	for i, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		display, _ := entry["diagnosis"].(string)
		if display == "" {
			display = "Unknown"
		}
		condition := map[string]any{"display": display}

		if code, ok := entry["code"].(string); ok && code != "" {
			system := terminology.SystemICD10CM
			if typ, _ := entry["type"].(string); typ == "ICD-9" {
				system = terminology.SystemICD9CM
			}
			condition["coding"] = []any{codingMap(terminology.Coding{
				System:  system,
				Code:    code,
				Display: display,
			})}
		}

		out = append(out, map[string]any{
			"condition": condition,
			"rank":      i + 1,
		})
	}
	return out
}
