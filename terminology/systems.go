package terminology

// Canonical code system URIs used in mapped resources.
const (
	SystemLOINC         = "http://loinc.org"
	SystemUCUM          = "http://unitsofmeasure.org"
	SystemActCode       = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	SystemV20203        = "http://terminology.hl7.org/CodeSystem/v2-0203"
	SystemObsCategory   = "http://terminology.hl7.org/CodeSystem/observation-category"
	SystemObsInterpret  = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	SystemParticipation = "http://terminology.hl7.org/CodeSystem/v3-ParticipationType"
	SystemICD10CM       = "http://hl7.org/fhir/sid/icd-10-cm"
	SystemICD9CM        = "http://hl7.org/fhir/sid/icd-9-cm"
	SystemBCP47         = "urn:ietf:bcp:47"
	legacySystemPrefix  = "urn:ehr:"
)

// LegacySystem returns the identifier/coding system URI for a source system
// label, e.g. "urn:ehr:legacy_ehr".
func LegacySystem(sourceSystem string) string {
	return legacySystemPrefix + sourceSystem
}

// IsLegacySystem reports whether a coding system URI is a legacy
// source-system URI rather than a standard terminology.
func IsLegacySystem(system string) bool {
	return len(system) > len(legacySystemPrefix) && system[:len(legacySystemPrefix)] == legacySystemPrefix
}
