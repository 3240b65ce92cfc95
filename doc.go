// Package fhirconverter converts legacy EHR extracts into FHIR resources
// and validates the result.
//
// The package has two tightly coupled subsystems: the mapping engine, which
// turns legacy records into FHIR Patient, Encounter, Observation and
// MedicationRequest resources while resolving cross-resource references, and
// the validation engine, which runs schema, business-rule and cross-resource
// checks over the assembled Bundle.
//
// # Quick Start
//
//	import (
//	    fc "github.com/gofhir/converter"
//	    "github.com/gofhir/converter/engine"
//	    "github.com/gofhir/converter/rules"
//	)
//
//	transformer := engine.NewTransformer(fc.WithSourceSystem("legacy_ehr"))
//	bundle, report, err := transformer.Transform(ctx, batch)
//	if err != nil {
//	    log.Fatal(err) // only a malformed batch aborts the run
//	}
//
//	validator := engine.NewValidator(rules.DefaultRegistry())
//	vreport := validator.Validate(ctx, bundle)
//	if !vreport.Passed() {
//	    for _, issue := range vreport.Errors() {
//	        fmt.Println(issue)
//	    }
//	}
//
// # Architecture
//
//   - Reference Index: assigns stable FHIR ids for legacy ids and resolves
//     references between resource types mapped in different passes
//   - Mappers: one per resource type, pure record-to-resource functions
//   - Bundle Assembler: type-grouped collection plus a transformation report
//   - Rule Registry: validation rules as data, not code branches
//   - Validation Engine: schema then business rules per resource, then
//     cross-resource rules over the whole Bundle
//
// Mapping is embarrassingly parallel at patient-group granularity; the engine
// partitions the batch by legacy patient id and maps groups on a worker pool.
// Within a group the topological order Patient, Encounter, then Observation
// and MedicationRequest is always preserved.
//
// Every error condition is local to one record or one rule: mapping failures
// are recorded and skipped, validation findings are data, and only an input
// batch that is not a recognizable record collection aborts the run.
package fhirconverter
