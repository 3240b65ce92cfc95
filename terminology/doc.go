// Package terminology holds the static code-translation tables and
// enumerated value sets used during mapping and validation.
//
// Value sets are enumerated, not resolved from a terminology server. Legacy
// codes with no translation entry are never dropped: mappers pass them
// through tagged with the legacy source system, and the validation engine is
// responsible for flagging them.
package terminology
