// Package rules defines the validation rules applied to mapped FHIR
// resources and the registry that orders them.
//
// A rule is a named check with a fixed category and default severity.
// Rules never panic and never abort a run; every finding becomes an Issue
// on the validation report. Per-resource rules see one resource at a time,
// cross-resource rules additionally see the whole Bundle.
package rules

import (
	"fmt"
	"sync"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/bundle"
)

// Violation is one finding from a rule check. The engine fills in the
// resource coordinates; a violation only names the field and message, and
// may override the rule's default severity.
type Violation struct {
	// Field is the offending field path
	Field string

	// Message is the diagnostic text
	Message string

	// Severity overrides the rule's default severity when non-empty
	Severity fc.Severity
}

// CheckFunc inspects one resource.
type CheckFunc func(res fc.Resource) []Violation

// CrossCheckFunc inspects one resource in the context of the whole Bundle.
type CrossCheckFunc func(res fc.Resource, b *bundle.Bundle) []Violation

// Rule is one validation check. Exactly one of Check and CrossCheck is
// set; rules with CrossCheck run in the cross-resource phase after all
// per-resource rules.
type Rule struct {
	// ID uniquely identifies the rule in reports
	ID string

	// Target is the resource type the rule applies to. Empty means the
	// rule applies to every supported type.
	Target fc.ResourceType

	// Category of the issues this rule produces
	Category fc.Category

	// Severity is the default severity of this rule's findings
	Severity fc.Severity

	// Check is the per-resource check
	Check CheckFunc

	// CrossCheck is the Bundle-wide check
	CrossCheck CrossCheckFunc
}

// AppliesTo reports whether the rule targets the given resource type.
func (r Rule) AppliesTo(t fc.ResourceType) bool {
	return r.Target == "" || r.Target == t
}

// Apply runs the per-resource check and converts its violations to
// issues. Cross rules return nothing here.
func (r Rule) Apply(res fc.Resource) []fc.Issue {
	if r.Check == nil {
		return nil
	}
	return r.issues(res, r.Check(res))
}

// ApplyCross runs the Bundle-wide check and converts its violations to
// issues. Per-resource rules return nothing here.
func (r Rule) ApplyCross(res fc.Resource, b *bundle.Bundle) []fc.Issue {
	if r.CrossCheck == nil {
		return nil
	}
	return r.issues(res, r.CrossCheck(res, b))
}

func (r Rule) issues(res fc.Resource, violations []Violation) []fc.Issue {
	if len(violations) == 0 {
		return nil
	}
	out := make([]fc.Issue, 0, len(violations))
	for _, v := range violations {
		severity := r.Severity
		if v.Severity != "" {
			severity = v.Severity
		}
		out = append(out, fc.NewIssue(severity, r.Category).
			On(res.Type(), res.ID()).
			At(v.Field).
			Message(v.Message).
			Rule(r.ID).
			Build())
	}
	return out
}

// Registry holds rules in registration order. Per-resource rules run in
// that order for each resource; cross-resource rules run afterwards, also
// in registration order. Registration order plus Bundle order makes report
// output deterministic.
type Registry struct {
	mu       sync.RWMutex
	resource []Rule
	cross    []Rule
	ids      map[string]struct{}
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Register adds a rule. Rule ids must be unique; a rule must carry exactly
// one of Check and CrossCheck.
func (reg *Registry) Register(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if (r.Check == nil) == (r.CrossCheck == nil) {
		return fmt.Errorf("rule %q: exactly one of Check and CrossCheck must be set", r.ID)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, dup := reg.ids[r.ID]; dup {
		return fmt.Errorf("rule %q already registered", r.ID)
	}
	reg.ids[r.ID] = struct{}{}
	if r.CrossCheck != nil {
		reg.cross = append(reg.cross, r)
	} else {
		reg.resource = append(reg.resource, r)
	}
	return nil
}

// MustRegister adds a rule and panics on error. Intended for building the
// default registry at startup.
func (reg *Registry) MustRegister(r Rule) {
	if err := reg.Register(r); err != nil {
		panic(err)
	}
}

// ForType returns the per-resource rules that apply to one type, in
// registration order.
func (reg *Registry) ForType(t fc.ResourceType) []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	var out []Rule
	for _, r := range reg.resource {
		if r.AppliesTo(t) {
			out = append(out, r)
		}
	}
	return out
}

// Cross returns the cross-resource rules in registration order.
func (reg *Registry) Cross() []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Rule, len(reg.cross))
	copy(out, reg.cross)
	return out
}

// Len returns the total number of registered rules.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.resource) + len(reg.cross)
}
