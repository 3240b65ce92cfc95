package fhirconverter

import (
	"sync"

	json "github.com/goccy/go-json"
)

// RunStatus is the overall outcome of a validation run.
type RunStatus string

const (
	// StatusPass means no error-severity issues were found.
	StatusPass RunStatus = "pass"
	// StatusFail means at least one error-severity issue was found.
	StatusFail RunStatus = "fail"
)

// Summary holds the aggregate counts of a validation run.
type Summary struct {
	Errors        int       `json:"errors"`
	Warnings      int       `json:"warnings"`
	Info          int       `json:"info"`
	OverallStatus RunStatus `json:"overallStatus"`
}

// ValidationReport is the ordered sequence of issues produced by one
// validation run, plus summary counts. Warnings and informational issues
// never fail a run; a single error does.
//
// AddIssue and AddIssues are safe for concurrent use so that parallel
// validation workers can contribute to one report.
type ValidationReport struct {
	mu     sync.Mutex
	issues []Issue

	errors   int
	warnings int
	infos    int

	byCategory map[Category]int
}

// NewValidationReport creates an empty report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		issues:     make([]Issue, 0, 16),
		byCategory: make(map[Category]int, 3),
	}
}

// AddIssue appends an issue to the report.
func (r *ValidationReport) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(issue)
}

// AddIssues appends multiple issues to the report.
func (r *ValidationReport) AddIssues(issues []Issue) {
	if len(issues) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, issue := range issues {
		r.append(issue)
	}
}

func (r *ValidationReport) append(issue Issue) {
	r.issues = append(r.issues, issue)
	r.byCategory[issue.Category]++
	switch issue.Severity {
	case SeverityError:
		r.errors++
	case SeverityWarning:
		r.warnings++
	case SeverityInfo:
		r.infos++
	}
}

// Passed returns true if the run contains no error-severity issues.
func (r *ValidationReport) Passed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors == 0
}

// Issues returns a copy of all issues in insertion order.
func (r *ValidationReport) Issues() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Errors returns all error-severity issues.
func (r *ValidationReport) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns all warning-severity issues.
func (r *ValidationReport) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *ValidationReport) filter(sev Severity) []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Issue
	for _, issue := range r.issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// ErrorCount returns the number of error-severity issues.
func (r *ValidationReport) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// WarningCount returns the number of warning-severity issues.
func (r *ValidationReport) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

// CountByCategory returns the number of issues in the given category.
func (r *ValidationReport) CountByCategory(c Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCategory[c]
}

// Summary returns the aggregate counts and overall status.
func (r *ValidationReport) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := StatusPass
	if r.errors > 0 {
		status = StatusFail
	}
	return Summary{
		Errors:        r.errors,
		Warnings:      r.warnings,
		Info:          r.infos,
		OverallStatus: status,
	}
}

// Merge appends another report's issues into this one.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	r.AddIssues(other.Issues())
}

// MarshalJSON serializes the report in its external shape:
//
//	{"summary": {...}, "issues": [...]}
func (r *ValidationReport) MarshalJSON() ([]byte, error) {
	summary := r.Summary()
	issues := r.Issues()
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(struct {
		Summary Summary `json:"summary"`
		Issues  []Issue `json:"issues"`
	}{Summary: summary, Issues: issues})
}
