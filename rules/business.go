package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/terminology"
)

// encounterPeriodOrder checks that period.end does not precede
// period.start.
func encounterPeriodOrder() Rule {
	return Rule{
		ID:       "business-encounter-period-order",
		Target:   fc.TypeEncounter,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			startRaw, ok := res.GetNestedString("period.start")
			if !ok || startRaw == "" {
				return nil
			}
			endRaw, ok := res.GetNestedString("period.end")
			if !ok || endRaw == "" {
				return nil
			}

			start, err := fc.ParseFHIRTime(startRaw)
			if err != nil {
				return nil
			}
			end, err := fc.ParseFHIRTime(endRaw)
			if err != nil {
				return nil
			}

			if !end.Before(start) {
				return nil
			}
			return []Violation{{
				Field:   "period",
				Message: fmt.Sprintf("period end %q precedes period start %q", endRaw, startRaw),
			}}
		},
	}
}

// medicationDosagePresent checks dosage instructions on a
// MedicationRequest. An active order with no dosage is unsafe to act on
// and is an error; an inactive one is only worth reviewing.
func medicationDosagePresent() Rule {
	return Rule{
		ID:       "business-medicationrequest-dosage-present",
		Target:   fc.TypeMedicationRequest,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityError,
		Check: func(res fc.Resource) []Violation {
			if fieldPresent(res, "dosageInstruction") {
				return nil
			}
			status, _ := res.GetString("status")
			v := Violation{
				Field:   "dosageInstruction",
				Message: fmt.Sprintf("%s MedicationRequest has no dosage instruction", status),
			}
			if status != "active" {
				v.Severity = fc.SeverityWarning
			}
			return []Violation{v}
		},
	}
}

// observationValuePresent checks that an Observation carries a value, a
// data-absent reason or components.
func observationValuePresent() Rule {
	return Rule{
		ID:       "business-observation-value-present",
		Target:   fc.TypeObservation,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			for _, field := range []string{
				"valueQuantity", "valueString", "valueCodeableConcept",
				"valueBoolean", "valueInteger", "dataAbsentReason", "component",
			} {
				if fieldPresent(res, field) {
					return nil
				}
			}
			return []Violation{{
				Field:   "value",
				Message: "Observation carries no value, dataAbsentReason or component",
			}}
		},
	}
}

// observationCodeQuality flags an Observation.code that carries neither a
// coding nor text, which no downstream consumer can interpret.
func observationCodeQuality() Rule {
	return Rule{
		ID:       "business-observation-code-quality",
		Target:   fc.TypeObservation,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			code, ok := res["code"].(map[string]any)
			if !ok {
				return nil
			}
			if text, _ := code["text"].(string); text != "" {
				return nil
			}
			if list, ok := code["coding"].([]any); ok && len(list) > 0 {
				return nil
			}
			return []Violation{{
				Field:   "code",
				Message: "Observation code carries neither coding nor text",
			}}
		},
	}
}

// untranslatedCode flags codings still tagged with a legacy source system,
// meaning terminology translation found no standard code.
func untranslatedCode() Rule {
	return Rule{
		ID:       "business-observation-untranslated-code",
		Target:   fc.TypeObservation,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			var out []Violation
			for _, coding := range codings(res, "code") {
				system, _ := coding["system"].(string)
				if !terminology.IsLegacySystem(system) {
					continue
				}
				code, _ := coding["code"].(string)
				out = append(out, Violation{
					Field:   "code.coding",
					Message: fmt.Sprintf("code %q was not translated to a standard terminology", code),
				})
			}
			return out
		},
	}
}

// plausibleQuantity flags Observation quantity values outside the
// plausible range for their LOINC code. Findings are warnings: an
// implausible number may still be a faithfully transferred source value.
func plausibleQuantity() Rule {
	return Rule{
		ID:       "business-observation-plausible-quantity",
		Target:   fc.TypeObservation,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			raw, ok := res.GetNested("valueQuantity.value")
			if !ok {
				return nil
			}
			value, ok := toDecimal(raw)
			if !ok {
				return nil
			}

			for _, coding := range codings(res, "code") {
				system, _ := coding["system"].(string)
				if system != terminology.SystemLOINC {
					continue
				}
				code, _ := coding["code"].(string)
				r, known := terminology.PlausibleRange(code)
				if !known || r.Contains(value) {
					continue
				}
				return []Violation{{
					Field: "valueQuantity.value",
					Message: fmt.Sprintf("value %s is outside the plausible range [%s, %s] %s for LOINC %s",
						value.String(), r.Min.String(), r.Max.String(), r.Unit, code),
				}}
			}
			return nil
		},
	}
}

// displayOnlyReference warns when a reference element carries only a
// human-readable display. Legacy sources often give provider names with
// no record behind them; the display is kept but nothing downstream can
// follow it.
func displayOnlyReference(target fc.ResourceType, fields ...string) Rule {
	return Rule{
		ID:       fmt.Sprintf("business-%s-display-only-reference", lowerType(target)),
		Target:   target,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityWarning,
		Check: func(res fc.Resource) []Violation {
			var out []Violation
			for _, field := range fields {
				v, ok := res.GetNested(field)
				if !ok {
					continue
				}
				switch t := v.(type) {
				case map[string]any:
					if displayOnly(t) {
						out = append(out, Violation{
							Field:   field,
							Message: fmt.Sprintf("%s carries a display but no resolvable reference", field),
						})
					}
				case []any:
					for i, item := range t {
						m, ok := item.(map[string]any)
						if !ok {
							continue
						}
						// Encounter.participant wraps its reference
						// in an individual element.
						if inner, ok := m["individual"].(map[string]any); ok {
							m = inner
						}
						if displayOnly(m) {
							out = append(out, Violation{
								Field:   fmt.Sprintf("%s[%d]", field, i),
								Message: fmt.Sprintf("%s[%d] carries a display but no resolvable reference", field, i),
							})
						}
					}
				}
			}
			return out
		},
	}
}

// displayOnly reports whether a reference element has a display and no
// reference target.
func displayOnly(m map[string]any) bool {
	display, _ := m["display"].(string)
	if display == "" {
		return false
	}
	ref, _ := m["reference"].(string)
	return ref == ""
}

// icd9Deprecated flags Encounter diagnoses still coded in ICD-9-CM.
func icd9Deprecated() Rule {
	return Rule{
		ID:       "business-encounter-icd9-diagnosis",
		Target:   fc.TypeEncounter,
		Category: fc.CategoryBusiness,
		Severity: fc.SeverityInfo,
		Check: func(res fc.Resource) []Violation {
			diagnoses, ok := res["diagnosis"].([]any)
			if !ok {
				return nil
			}
			var out []Violation
			for i, item := range diagnoses {
				entry, ok := item.(map[string]any)
				if !ok {
					continue
				}
				condition, ok := entry["condition"].(map[string]any)
				if !ok {
					continue
				}
				list, ok := condition["coding"].([]any)
				if !ok {
					continue
				}
				for _, c := range list {
					coding, ok := c.(map[string]any)
					if !ok {
						continue
					}
					if system, _ := coding["system"].(string); system == terminology.SystemICD9CM {
						code, _ := coding["code"].(string)
						out = append(out, Violation{
							Field:   fmt.Sprintf("diagnosis[%d]", i),
							Message: fmt.Sprintf("diagnosis %q uses the deprecated ICD-9-CM code system", code),
						})
					}
				}
			}
			return out
		},
	}
}

// businessRules returns all business-category rules in evaluation order.
func businessRules() []Rule {
	return []Rule{
		encounterPeriodOrder(),
		icd9Deprecated(),
		observationValuePresent(),
		observationCodeQuality(),
		untranslatedCode(),
		plausibleQuantity(),
		medicationDosagePresent(),
		displayOnlyReference(fc.TypeEncounter, "participant"),
		displayOnlyReference(fc.TypeObservation, "performer"),
		displayOnlyReference(fc.TypeMedicationRequest, "requester"),
	}
}

// codings returns the coding maps under a CodeableConcept field.
func codings(res fc.Resource, field string) []map[string]any {
	list, ok := res.GetNested(field + ".coding")
	if !ok {
		return nil
	}
	raw, ok := list.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if coding, ok := item.(map[string]any); ok {
			out = append(out, coding)
		}
	}
	return out
}

// toDecimal coerces a resource value to a decimal for range checks.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
