package terminology

import "sync"

// Coding is one translated code in a target code system.
type Coding struct {
	System  string
	Code    string
	Display string
}

// Translation is the outcome of translating a legacy code. When Translated
// is false the coding carries the legacy system and original code so the
// value is passed through, not dropped; the validation engine flags it.
type Translation struct {
	Coding     Coding
	Translated bool
}

// CodeTranslator translates legacy free-text and local codes into target
// code systems through static tables. Additional entries can be registered
// at construction time; all lookups are safe for concurrent use.
type CodeTranslator struct {
	mu sync.RWMutex

	gender            map[string]string
	encounterStatus   map[string]string
	encounterClass    map[string]string
	observationStatus map[string]string
	medicationStatus  map[string]string
	languages         map[string]string
	loincDisplays     map[string]string

	sourceSystem string
}

// NewCodeTranslator creates a translator preloaded with the standard tables
// for the given source system.
func NewCodeTranslator(sourceSystem string) *CodeTranslator {
	t := &CodeTranslator{sourceSystem: sourceSystem}
	t.loadDefaults()
	return t
}

func (t *CodeTranslator) loadDefaults() {
	t.gender = map[string]string{
		"M": "male",
		"F": "female",
		"O": "other",
		"U": "unknown",
	}

	t.encounterStatus = map[string]string{
		"completed":        "finished",
		"in-progress":      "in-progress",
		"cancelled":        "cancelled",
		"entered-in-error": "entered-in-error",
		"scheduled":        "planned",
	}

	t.encounterClass = map[string]string{
		"Office Visit":      "AMB",
		"Outpatient":        "AMB",
		"Ambulatory":        "AMB",
		"Urgent Care":       "AMB",
		"Hospital Encounter": "IMP",
		"Inpatient":         "IMP",
		"Emergency":         "EMER",
		"Surgery":           "SS",
		"Telehealth":        "VR",
		"Virtual":           "VR",
		"Home Visit":        "HH",
		"Nursing Home":      "NONAC",
		"Skilled Nursing":   "NONAC",
	}

	t.observationStatus = map[string]string{
		"final":            "final",
		"preliminary":      "preliminary",
		"corrected":        "corrected",
		"cancelled":        "cancelled",
		"entered-in-error": "entered-in-error",
	}

	t.medicationStatus = map[string]string{
		"active":    "active",
		"completed": "completed",
		"cancelled": "stopped",
		"on-hold":   "on-hold",
		"stopped":   "stopped",
	}

	t.languages = map[string]string{
		"English":    "en",
		"Spanish":    "es",
		"French":     "fr",
		"German":     "de",
		"Chinese":    "zh",
		"Japanese":   "ja",
		"Korean":     "ko",
		"Russian":    "ru",
		"Arabic":     "ar",
		"Hindi":      "hi",
		"Portuguese": "pt",
	}

	// Known LOINC test codes and their canonical displays.
	t.loincDisplays = map[string]string{
		"8867-4":  "Heart rate",
		"8480-6":  "Systolic blood pressure",
		"8462-4":  "Diastolic blood pressure",
		"8310-5":  "Body temperature",
		"29463-7": "Body weight",
		"8302-2":  "Body height",
		"2339-0":  "Glucose [Mass/volume] in Blood",
		"718-7":   "Hemoglobin [Mass/volume] in Blood",
		"2093-3":  "Cholesterol [Mass/volume] in Serum or Plasma",
		"2571-8":  "Triglyceride [Mass/volume] in Serum or Plasma",
		"6690-2":  "Leukocytes [#/volume] in Blood",
		"2160-0":  "Creatinine [Mass/volume] in Serum or Plasma",
	}
}

// SourceSystem returns the source-system label the translator tags
// untranslated codes with.
func (t *CodeTranslator) SourceSystem() string {
	return t.sourceSystem
}

// Gender maps a legacy gender code to a FHIR administrative gender.
// Unknown codes map to "unknown".
func (t *CodeTranslator) Gender(legacy string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if g, ok := t.gender[legacy]; ok {
		return g
	}
	return "unknown"
}

// EncounterStatus maps a legacy encounter status to the FHIR status enum.
// Unknown statuses map to "unknown".
func (t *CodeTranslator) EncounterStatus(legacy string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.encounterStatus[legacy]; ok {
		return s
	}
	return "unknown"
}

// EncounterClass maps a legacy visit type to a v3-ActCode class coding.
// Unknown types map to ambulatory.
func (t *CodeTranslator) EncounterClass(visitType string) Coding {
	t.mu.RLock()
	code, ok := t.encounterClass[visitType]
	t.mu.RUnlock()
	if !ok {
		code = "AMB"
	}
	display := visitType
	if display == "" {
		display = "Ambulatory"
	}
	return Coding{System: SystemActCode, Code: code, Display: display}
}

// ObservationStatus maps a legacy observation status to the FHIR status
// enum. Unknown statuses map to "unknown".
func (t *CodeTranslator) ObservationStatus(legacy string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.observationStatus[legacy]; ok {
		return s
	}
	return "unknown"
}

// MedicationStatus maps a legacy medication status to the FHIR
// MedicationRequest status enum. Unknown statuses map to "unknown".
func (t *CodeTranslator) MedicationStatus(legacy string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.medicationStatus[legacy]; ok {
		return s
	}
	return "unknown"
}

// Language maps a language name to its BCP-47 code. Unknown names map to
// "en".
func (t *CodeTranslator) Language(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.languages[name]; ok {
		return c
	}
	return "en"
}

// TestCode translates a legacy test code into the target code system.
// Codes present in the LOINC table translate with their canonical display;
// anything else passes through tagged with the legacy source system.
func (t *CodeTranslator) TestCode(code, display string) Translation {
	t.mu.RLock()
	canonical, ok := t.loincDisplays[code]
	t.mu.RUnlock()

	if ok {
		if display == "" {
			display = canonical
		}
		return Translation{
			Coding:     Coding{System: SystemLOINC, Code: code, Display: display},
			Translated: true,
		}
	}

	return Translation{
		Coding:     Coding{System: LegacySystem(t.sourceSystem), Code: code, Display: display},
		Translated: false,
	}
}

// RegisterTestCode adds or overrides a LOINC translation entry.
func (t *CodeTranslator) RegisterTestCode(code, display string) {
	t.mu.Lock()
	t.loincDisplays[code] = display
	t.mu.Unlock()
}

// RegisterEncounterStatus adds or overrides an encounter status mapping.
func (t *CodeTranslator) RegisterEncounterStatus(legacy, fhir string) {
	t.mu.Lock()
	t.encounterStatus[legacy] = fhir
	t.mu.Unlock()
}

// RegisterMedicationStatus adds or overrides a medication status mapping.
func (t *CodeTranslator) RegisterMedicationStatus(legacy, fhir string) {
	t.mu.Lock()
	t.medicationStatus[legacy] = fhir
	t.mu.Unlock()
}
