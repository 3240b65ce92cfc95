package fhirconverter

import (
	"fmt"
	"strings"
	"time"
)

// legacyLayouts are the date and timestamp layouts accepted from source
// systems, tried in order. The first match wins.
var legacyLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// CanonicalizeDate parses a legacy date or timestamp string and returns its
// canonical FHIR representation: "2006-01-02" for date-only values, RFC 3339
// for values with a time component. Unparsable input is an error; mapping
// never produces a best-effort guess.
func CanonicalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}

	for _, layout := range legacyLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" || layout == "2006/01/02" || layout == "01/02/2006" {
			return t.Format("2006-01-02"), nil
		}
		return t.Format(time.RFC3339), nil
	}

	return "", fmt.Errorf("unparsable date %q", s)
}

// ParseFHIRTime parses a canonical FHIR date or dateTime string into a
// time.Time for ordering comparisons.
func ParseFHIRTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("not a FHIR date or dateTime: %q", s)
}

// ValidFHIRDate reports whether s is a well-formed FHIR date or dateTime.
func ValidFHIRDate(s string) bool {
	_, err := ParseFHIRTime(s)
	return err == nil
}
