package terminology

import "github.com/shopspring/decimal"

// valueSets enumerates the allowed codes per "<ResourceType>.<field>" path.
var valueSets = map[string][]string{
	"Patient.gender": {
		"male", "female", "other", "unknown",
	},
	"Encounter.status": {
		"planned", "arrived", "triaged", "in-progress", "onleave",
		"finished", "cancelled", "entered-in-error", "unknown",
	},
	"Observation.status": {
		"registered", "preliminary", "final", "amended", "corrected",
		"cancelled", "entered-in-error", "unknown",
	},
	"MedicationRequest.status": {
		"active", "on-hold", "cancelled", "completed", "entered-in-error",
		"stopped", "draft", "unknown",
	},
	"MedicationRequest.intent": {
		"proposal", "plan", "order", "original-order", "reflex-order",
		"filler-order", "instance-order", "option",
	},
	"ContactPoint.system": {
		"phone", "fax", "email", "pager", "url", "sms", "other",
	},
}

// ValueSet returns the enumerated codes for a "<ResourceType>.<field>" path.
func ValueSet(path string) ([]string, bool) {
	vs, ok := valueSets[path]
	return vs, ok
}

// InValueSet reports whether code is a member of the value set for path.
// Unknown paths report true: absence of an enumeration is not a finding.
func InValueSet(path, code string) bool {
	vs, ok := valueSets[path]
	if !ok {
		return true
	}
	for _, v := range vs {
		if v == code {
			return true
		}
	}
	return false
}

// QuantityRange is the plausible range for a measured quantity.
type QuantityRange struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Unit string
}

// Contains reports whether v lies within the range (inclusive).
func (r QuantityRange) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// plausibleRanges holds per-LOINC-code plausibility thresholds. Values
// outside the range are flagged as warnings, never errors: an implausible
// number may still be a faithfully transferred source value.
var plausibleRanges = map[string]QuantityRange{
	"8867-4":  {Min: decimal.NewFromInt(20), Max: decimal.NewFromInt(300), Unit: "/min"},
	"8480-6":  {Min: decimal.NewFromInt(50), Max: decimal.NewFromInt(260), Unit: "mm[Hg]"},
	"8462-4":  {Min: decimal.NewFromInt(30), Max: decimal.NewFromInt(160), Unit: "mm[Hg]"},
	"8310-5":  {Min: decimal.NewFromInt(30), Max: decimal.NewFromInt(45), Unit: "Cel"},
	"2339-0":  {Min: decimal.NewFromInt(20), Max: decimal.NewFromInt(600), Unit: "mg/dL"},
	"718-7":   {Min: decimal.NewFromInt(3), Max: decimal.NewFromInt(25), Unit: "g/dL"},
	"29463-7": {Min: decimal.NewFromFloat(0.2), Max: decimal.NewFromInt(650), Unit: "kg"},
	"8302-2":  {Min: decimal.NewFromInt(20), Max: decimal.NewFromInt(280), Unit: "cm"},
}

// PlausibleRange returns the plausibility range for a LOINC code.
func PlausibleRange(loincCode string) (QuantityRange, bool) {
	r, ok := plausibleRanges[loincCode]
	return r, ok
}
