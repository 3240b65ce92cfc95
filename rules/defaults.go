package rules

// DefaultRegistry returns the standard rule set: schema rules first, then
// business rules, expression-backed rules, and finally the cross-resource
// rules.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, r := range schemaRules() {
		reg.MustRegister(r)
	}
	for _, r := range businessRules() {
		reg.MustRegister(r)
	}
	for _, r := range expressionRules() {
		reg.MustRegister(r)
	}
	for _, r := range crossRules() {
		reg.MustRegister(r)
	}
	return reg
}
