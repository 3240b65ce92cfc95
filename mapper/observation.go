package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
)

// ObservationMapper maps legacy observation records to FHIR Observation
// resources. One legacy record carries a results array; each result
// component becomes its own Observation, so this mapper fans out.
type ObservationMapper struct {
	sourceSystem string
	translator   *terminology.CodeTranslator
}

// NewObservationMapper creates an Observation mapper.
func NewObservationMapper(sourceSystem string, translator *terminology.CodeTranslator) *ObservationMapper {
	return &ObservationMapper{sourceSystem: sourceSystem, translator: translator}
}

// ResourceType returns fc.TypeObservation.
func (m *ObservationMapper) ResourceType() fc.ResourceType {
	return fc.TypeObservation
}

// Map transforms one legacy observation record into one Observation per
// result component (or a single Observation when the record carries no
// results array).
func (m *ObservationMapper) Map(record fc.LegacyRecord, idx *refindex.Index) ([]fc.Resource, *fc.MappingFailure) {
	legacyID, ok := record.GetString("observation_id")
	if !ok || legacyID == "" {
		return nil, failMissing(fc.TypeObservation, "", "observation_id")
	}

	patientLegacyID, ok := record.GetString("patient_id")
	if !ok || patientLegacyID == "" {
		return nil, failMissing(fc.TypeObservation, legacyID, "patient_id")
	}
	subjectRef, failure := resolveSubject(idx, fc.TypeObservation, legacyID, patientLegacyID)
	if failure != nil {
		return nil, failure
	}

	var encounterRef string
	if encLegacyID, ok := record.GetString("encounter_id"); ok && encLegacyID != "" {
		ref, err := idx.ResolveReference(fc.TypeEncounter, encLegacyID)
		if err != nil {
			return nil, failUnresolved(fc.TypeObservation, legacyID, err)
		}
		encounterRef = ref
	}

	effectiveRaw, ok := record.GetString("observation_date")
	if !ok || effectiveRaw == "" {
		return nil, failMissing(fc.TypeObservation, legacyID, "observation_date")
	}
	effective, err := fc.CanonicalizeDate(effectiveRaw)
	if err != nil {
		return nil, failMalformed(fc.TypeObservation, legacyID, "observation_date", err)
	}

	results, _ := record.GetSlice("results")
	if len(results) == 0 {
		obs := m.buildObservation(record, idx, legacyID, subjectRef, encounterRef, effective, nil, -1)
		return []fc.Resource{obs}, nil
	}

	out := make([]fc.Resource, 0, len(results))
	for i, item := range results {
		result, _ := item.(map[string]any)
		obs := m.buildObservation(record, idx, legacyID, subjectRef, encounterRef, effective, result, i)
		out = append(out, obs)
	}
	return out, nil
}

// buildObservation assembles one Observation. componentIdx is -1 when the
// record carries no results array.
func (m *ObservationMapper) buildObservation(
	record fc.LegacyRecord,
	idx *refindex.Index,
	legacyID, subjectRef, encounterRef, effective string,
	result map[string]any,
	componentIdx int,
) fc.Resource {
	componentID := legacyID
	if componentIdx >= 0 {
		componentID = fmt.Sprintf("%s-%d", legacyID, componentIdx)
	}
	fhirID := idx.Register(fc.TypeObservation, componentID)

	status, _ := record.GetString("status")

	obs := fc.Resource{
		"resourceType": "Observation",
		"id":           fhirID,
		"identifier":   []any{legacyIdentifier(m.sourceSystem, componentID)},
		"status":       m.translator.ObservationStatus(status),
		"category": []any{codeableConcept("", terminology.Coding{
			System:  terminology.SystemObsCategory,
			Code:    "laboratory",
			Display: "Laboratory",
		})},
		"code":              m.mapCode(record, result),
		"subject":           reference(subjectRef),
		"effectiveDateTime": effective,
	}

	if encounterRef != "" {
		obs["encounter"] = reference(encounterRef)
	}

	if result != nil {
		m.mapValue(obs, result)
		m.mapInterpretation(obs, result)
		if rr, ok := result["reference_range"].(string); ok && rr != "" {
			obs["referenceRange"] = []any{map[string]any{"text": rr}}
		}
	}

	if performer, ok := record.GetString("performer"); ok && performer != "" {
		obs["performer"] = []any{map[string]any{"display": performer}}
	}

	return obs
}

// mapCode translates the legacy test code. Untranslated codes pass through
// tagged with the legacy source system; the validation engine flags them.
func (m *ObservationMapper) mapCode(record fc.LegacyRecord, result map[string]any) map[string]any {
	text, _ := record.GetString("test_name")
	if result != nil {
		if component, ok := result["component"].(string); ok && component != "" {
			text = component
		}
	}
	if text == "" {
		text = "Unknown Test"
	}

	code, _ := record.GetString("test_code")
	if code == "" {
		return codeableConcept(text)
	}

	translation := m.translator.TestCode(code, text)
	return codeableConcept(text, translation.Coding)
}

// mapValue sets valueQuantity for numeric results and valueString
// otherwise.
func (m *ObservationMapper) mapValue(obs fc.Resource, result map[string]any) {
	raw, ok := result["value"]
	if !ok {
		return
	}

	unit, _ := result["unit"].(string)

	switch v := raw.(type) {
	case float64:
		obs["valueQuantity"] = m.quantity(decimal.NewFromFloat(v), unit)
	case int:
		obs["valueQuantity"] = m.quantity(decimal.NewFromInt(int64(v)), unit)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			obs["valueQuantity"] = m.quantity(d, unit)
		} else {
			obs["valueString"] = v
		}
	}
}

func (m *ObservationMapper) quantity(d decimal.Decimal, unit string) map[string]any {
	q := map[string]any{"value": d.InexactFloat64()}
	if unit != "" {
		q["unit"] = unit
		q["system"] = terminology.SystemUCUM
		q["code"] = unit
	}
	return q
}

// mapInterpretation maps the legacy per-result status to a v3
// ObservationInterpretation coding.
func (m *ObservationMapper) mapInterpretation(obs fc.Resource, result map[string]any) {
	status, ok := result["status"].(string)
	if !ok || status == "" {
		return
	}

	code := "N"
	switch status {
	case "high":
		code = "H"
	case "low":
		code = "L"
	case "abnormal":
		code = "A"
	}

	display := strings.ToUpper(status[:1]) + status[1:]
	obs["interpretation"] = []any{codeableConcept("", terminology.Coding{
		System:  terminology.SystemObsInterpret,
		Code:    code,
		Display: display,
	})}
}
