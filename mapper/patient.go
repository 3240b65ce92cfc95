package mapper

import (
	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// PatientMapper maps legacy patient records to FHIR Patient resources.
// Patients are the root of the reference graph: they register first and
// carry no outbound references.
type PatientMapper struct {
	sourceSystem string
	translator   *terminology.CodeTranslator
}

// NewPatientMapper creates a Patient mapper.
func NewPatientMapper(sourceSystem string, translator *terminology.CodeTranslator) *PatientMapper {
	return &PatientMapper{sourceSystem: sourceSystem, translator: translator}
}

// ResourceType returns fc.TypePatient.
func (m *PatientMapper) ResourceType() fc.ResourceType {
	return fc.TypePatient
}

// Map transforms one legacy patient record.
func (m *PatientMapper) Map(record fc.LegacyRecord, idx *refindex.Index) ([]fc.Resource, *fc.MappingFailure) {
	legacyID, ok := record.GetString("patient_id")
	if !ok || legacyID == "" {
		return nil, failMissing(fc.TypePatient, "", "patient_id")
	}

	fhirID := idx.Register(fc.TypePatient, legacyID)

	identifiers := []any{legacyIdentifier(m.sourceSystem, legacyID)}
	if mrn, ok := record.GetString("mrn"); ok && mrn != "" {
		identifiers = append(identifiers, map[string]any{
			"system": terminology.SystemV20203,
			"type": codeableConcept("", terminology.Coding{
				System:  terminology.SystemV20203,
				Code:    "MR",
				Display: "Medical Record Number",
			}),
			"value": mrn,
		})
	}

	patient := fc.Resource{
		"resourceType": "Patient",
		"id":           fhirID,
		"identifier":   identifiers,
		"active":       true,
	}
	if active, ok := asBool(record["active"]); ok {
		patient["active"] = active
	}

	genderCode, _ := record.GetString("gender")
	patient["gender"] = m.translator.Gender(genderCode)

	if name := m.mapName(record); name != nil {
		patient["name"] = []any{name}
	}

	if birth, ok := record.GetString("birth_date"); ok && birth != "" {
		canonical, err := fc.CanonicalizeDate(birth)
		if err != nil {
			return nil, failMalformed(fc.TypePatient, legacyID, "birth_date", err)
		}
		patient["birthDate"] = canonical
	}

	if deceased, ok := asBool(record["deceased"]); ok {
		patient["deceasedBoolean"] = deceased
	}

	if addr := m.mapAddress(record); addr != nil {
		patient["address"] = []any{addr}
	}

	if telecom := m.mapTelecom(record); len(telecom) > 0 {
		patient["telecom"] = telecom
	}

	if lang, ok := record.GetString("preferred_language"); ok && lang != "" {
		patient["communication"] = []any{map[string]any{
			"language": codeableConcept(lang, terminology.Coding{
				System:  terminology.SystemBCP47,
				Code:    m.translator.Language(lang),
				Display: lang,
			}),
			"preferred": true,
		}}
	}

	return []fc.Resource{patient}, nil
}

// mapName builds the official HumanName, or nil when the record names
// nothing.
func (m *PatientMapper) mapName(record fc.LegacyRecord) map[string]any {
	first, _ := record.GetString("first_name")
	last, _ := record.GetString("last_name")
	middle, _ := record.GetString("middle_name")

	if first == "" && last == "" {
		return nil
	}

	given := make([]any, 0, 2)
	if first != "" {
		given = append(given, first)
	}
	if middle != "" {
		given = append(given, middle)
	}

	name := map[string]any{"use": "official"}
	if last != "" {
		name["family"] = last
	}
	if len(given) > 0 {
		name["given"] = given
	}
	return name
}

func (m *PatientMapper) mapAddress(record fc.LegacyRecord) map[string]any {
	addr, ok := record.GetMap("address")
	if !ok {
		return nil
	}

	out := map[string]any{"use": "home"}
	var lines []any
	for _, field := range []string{"line1", "line2"} {
		if v, ok := addr[field].(string); ok && v != "" {
			lines = append(lines, v)
		}
	}
	if len(lines) > 0 {
		out["line"] = lines
	}
	if city, ok := addr["city"].(string); ok && city != "" {
		out["city"] = city
	}
	if state, ok := addr["state_code"].(string); ok && state != "" {
		out["state"] = state
	} else if state, ok := addr["state"].(string); ok && state != "" {
		out["state"] = state
	}
	if postal, ok := addr["postal_code"].(string); ok && postal != "" {
		out["postalCode"] = postal
	}
	if country, ok := addr["country"].(string); ok && country != "" {
		out["country"] = country
	}
	return out
}

func (m *PatientMapper) mapTelecom(record fc.LegacyRecord) []any {
	contact, ok := record.GetMap("contact")
	if !ok {
		return nil
	}

	var telecom []any
	if phone, ok := contact["phone"].(string); ok && phone != "" {
		telecom = append(telecom, map[string]any{
			"system": "phone",
			"value":  phone,
			"use":    "home",
		})
	}
	if email, ok := contact["email"].(string); ok && email != "" {
		telecom = append(telecom, map[string]any{
			"system": "email",
			"value":  email,
		})
	}
	return telecom
}
