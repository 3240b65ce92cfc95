// Package engine drives the two halves of the conversion pipeline: the
// Transformer maps legacy record batches into a FHIR Bundle, and the
// Validator runs the rule registry over a Bundle to produce a validation
// report.
package engine

import (
	"fmt"
	"sort"
	"strings"

	fc "github.com/gofhir/converter"
)

// batchKeys maps the record-collection names accepted on input batches to
// their resource types. Extraction systems disagree on naming, so both
// the FHIR type name and common plural spellings are accepted.
var batchKeys = map[string]fc.ResourceType{
	"patient":            fc.TypePatient,
	"patients":           fc.TypePatient,
	"encounter":          fc.TypeEncounter,
	"encounters":         fc.TypeEncounter,
	"observation":        fc.TypeObservation,
	"observations":       fc.TypeObservation,
	"medicationrequest":  fc.TypeMedicationRequest,
	"medicationrequests": fc.TypeMedicationRequest,
	"medication":         fc.TypeMedicationRequest,
	"medications":        fc.TypeMedicationRequest,
}

// normalizeBatch resolves batch collection names to resource types. A nil
// batch or a batch with an unrecognized collection name is malformed and
// aborts the run; an empty batch is valid and produces an empty Bundle.
// Collections are scanned in sorted name order so that aliases naming the
// same type always concatenate identically.
func normalizeBatch(batch fc.Batch) (map[fc.ResourceType][]fc.LegacyRecord, error) {
	if batch == nil {
		return nil, fmt.Errorf("%w: batch is nil", fc.ErrMalformedBatch)
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[fc.ResourceType][]fc.LegacyRecord, len(batch))
	for _, name := range names {
		t, ok := batchKeys[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown record collection %q", fc.ErrMalformedBatch, name)
		}
		out[t] = append(out[t], batch[name]...)
	}
	return out, nil
}

// group is one patient's worth of records plus its first-seen position.
type group struct {
	seq     int
	id      string
	records map[fc.ResourceType][]fc.LegacyRecord
}

// partition splits normalized records into per-patient groups. Group
// order follows first appearance of each patient id, scanning types in
// mapping order, so identical input always partitions identically.
// Records that name no patient id share one group; their mappers report
// the missing field per record.
func partition(records map[fc.ResourceType][]fc.LegacyRecord) []*group {
	var groups []*group
	index := make(map[string]*group)

	for _, t := range fc.MappingOrder {
		for _, record := range records[t] {
			patientID, _ := record.GetString("patient_id")
			g, ok := index[patientID]
			if !ok {
				g = &group{
					seq:     len(groups),
					id:      patientID,
					records: make(map[fc.ResourceType][]fc.LegacyRecord),
				}
				index[patientID] = g
				groups = append(groups, g)
			}
			g.records[t] = append(g.records[t], record)
		}
	}
	return groups
}
