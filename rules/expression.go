package rules

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"

	fc "github.com/gofhir/converter"
)

// evaluator compiles and evaluates FHIRPath expressions against mapped
// resources, caching compiled expressions across rule evaluations.
type evaluator struct {
	mu    sync.RWMutex
	cache map[string]*fhirpath.Expression
}

var sharedEvaluator = &evaluator{cache: make(map[string]*fhirpath.Expression)}

// eval evaluates an expression against a resource and reports whether it
// is satisfied using FHIRPath truthiness: an empty collection is false, a
// single boolean is its value, any other non-empty collection is true.
func (e *evaluator) eval(expression string, res fc.Resource) (bool, error) {
	compiled, err := e.getOrCompile(expression)
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", expression, err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("marshal resource: %w", err)
	}

	result, err := compiled.Evaluate(raw)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return toBool(result), nil
}

func (e *evaluator) getOrCompile(expression string) (*fhirpath.Expression, error) {
	e.mu.RLock()
	compiled, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()
	return compiled, nil
}

func toBool(result types.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}

// ExpressionRule builds a rule from a FHIRPath expression. The rule fires
// when the expression is NOT satisfied by the resource. An expression that
// fails to compile or evaluate produces a finding too, so broken rules
// surface in reports instead of passing silently.
func ExpressionRule(id string, target fc.ResourceType, severity fc.Severity, expression, field, message string) Rule {
	return Rule{
		ID:       id,
		Target:   target,
		Category: fc.CategoryBusiness,
		Severity: severity,
		Check: func(res fc.Resource) []Violation {
			ok, err := sharedEvaluator.eval(expression, res)
			if err != nil {
				return []Violation{{
					Field:   field,
					Message: fmt.Sprintf("expression check failed: %v", err),
				}}
			}
			if ok {
				return nil
			}
			return []Violation{{Field: field, Message: message}}
		},
	}
}

// expressionRules returns the FHIRPath-backed rules in evaluation order.
func expressionRules() []Rule {
	return []Rule{
		ExpressionRule(
			"business-patient-name-present",
			fc.TypePatient,
			fc.SeverityWarning,
			"name.exists()",
			"name",
			"Patient carries no name",
		),
		ExpressionRule(
			"business-patient-birthdate-or-deceased",
			fc.TypePatient,
			fc.SeverityInfo,
			"birthDate.exists() or deceasedBoolean.exists()",
			"birthDate",
			"Patient carries neither a birth date nor a deceased flag",
		),
	}
}
