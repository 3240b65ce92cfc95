package fhirconverter

import "testing"

func TestIssueBuilder(t *testing.T) {
	issue := Error(CategorySchema).
		On("Encounter", "abc-123").
		At("period.start").
		Message("required field is missing").
		Rule("schema-encounter-period.start-required").
		Build()

	if issue.Severity != SeverityError {
		t.Errorf("Severity = %q, want %q", issue.Severity, SeverityError)
	}
	if issue.Category != CategorySchema {
		t.Errorf("Category = %q, want %q", issue.Category, CategorySchema)
	}
	if issue.ResourceType != "Encounter" || issue.ResourceID != "abc-123" {
		t.Errorf("resource = %s/%s, want Encounter/abc-123", issue.ResourceType, issue.ResourceID)
	}
	if issue.Field != "period.start" {
		t.Errorf("Field = %q, want %q", issue.Field, "period.start")
	}
	if !issue.IsError() {
		t.Error("IsError() = false, want true")
	}
	if issue.IsWarning() {
		t.Error("IsWarning() = true, want false")
	}
}

func TestIssueSeverityConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *IssueBuilder
		severity Severity
	}{
		{"error", Error(CategoryBusiness), SeverityError},
		{"warning", Warning(CategoryBusiness), SeverityWarning},
		{"info", Info(CategoryBusiness), SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := tt.builder.Message("m").Build()
			if issue.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", issue.Severity, tt.severity)
			}
		})
	}
}

func TestIssueString(t *testing.T) {
	issue := Warning(CategoryBusiness).
		On("Observation", "obs-1").
		At("valueQuantity.value").
		Message("value out of range").
		Build()

	got := issue.String()
	want := "warning: value out of range (Observation/obs-1 at valueQuantity.value)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
