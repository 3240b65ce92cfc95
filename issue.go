package fhirconverter

// Severity represents the severity of a validation issue.
type Severity string

const (
	// SeverityError indicates a finding that makes the resource unsafe to use.
	SeverityError Severity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates purely informational feedback.
	SeverityInfo Severity = "info"
)

// Category classifies the kind of check that produced an issue.
type Category string

const (
	// CategorySchema covers required-field presence, value types and
	// value-set membership.
	CategorySchema Category = "schema"
	// CategoryBusiness covers domain constraints within one resource.
	CategoryBusiness Category = "business"
	// CategoryCross covers checks that span two or more resources.
	CategoryCross Category = "cross-resource"
)

// Issue represents a single validation finding. Issues are always data,
// never exceptions: one resource may accumulate many of them.
type Issue struct {
	// ResourceType of the resource the finding is about
	ResourceType string `json:"resourceType"`

	// ResourceID of the resource the finding is about
	ResourceID string `json:"resourceId"`

	// Category of the rule that produced the finding
	Category Category `json:"category"`

	// Severity of the finding
	Severity Severity `json:"severity"`

	// Field is the offending field path, if one can be named
	Field string `json:"field,omitempty"`

	// Message is the human-readable diagnostic
	Message string `json:"message"`

	// RuleID identifies the rule that produced the finding
	RuleID string `json:"ruleId,omitempty"`
}

// IsError returns true if this is an error-severity issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	loc := i.ResourceType + "/" + i.ResourceID
	if i.Field != "" {
		loc += " at " + i.Field
	}
	return string(i.Severity) + ": " + i.Message + " (" + loc + ")"
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity Severity, category Category) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Category: category,
		},
	}
}

// Error creates an error issue builder.
func Error(category Category) *IssueBuilder {
	return NewIssue(SeverityError, category)
}

// Warning creates a warning issue builder.
func Warning(category Category) *IssueBuilder {
	return NewIssue(SeverityWarning, category)
}

// Info creates an informational issue builder.
func Info(category Category) *IssueBuilder {
	return NewIssue(SeverityInfo, category)
}

// On sets the resource the issue is about.
func (b *IssueBuilder) On(resourceType, resourceID string) *IssueBuilder {
	b.issue.ResourceType = resourceType
	b.issue.ResourceID = resourceID
	return b
}

// At sets the offending field path.
func (b *IssueBuilder) At(field string) *IssueBuilder {
	b.issue.Field = field
	return b
}

// Message sets the diagnostic message.
func (b *IssueBuilder) Message(msg string) *IssueBuilder {
	b.issue.Message = msg
	return b
}

// Rule sets the originating rule id.
func (b *IssueBuilder) Rule(id string) *IssueBuilder {
	b.issue.RuleID = id
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
