package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/bundle"
	"github.com/gofhir/converter/rules"
)

// Validator runs a rule registry over a Bundle and produces a validation
// report. It is safe for concurrent use.
type Validator struct {
	registry *rules.Registry
	opts     *fc.Options
	metrics  *fc.Metrics
}

// NewValidator creates a Validator over the given rule registry. A nil
// registry gets the default rule set.
func NewValidator(registry *rules.Registry, opts ...fc.Option) *Validator {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	return &Validator{
		registry: registry,
		opts:     fc.ApplyOptions(opts...),
		metrics:  fc.NewMetrics(),
	}
}

// Metrics returns the validator's cumulative metrics.
func (v *Validator) Metrics() *fc.Metrics {
	return v.metrics
}

// Validate applies every registered rule to every resource in the Bundle.
//
// Per-resource rules run first, in parallel when enabled, with issues
// merged in Bundle order so the report is deterministic. Cross-resource
// rules run sequentially afterwards, once the whole Bundle is available
// to them. Validation never mutates resources and never stops early: a
// resource with ten problems yields ten issues.
func (v *Validator) Validate(ctx context.Context, b *bundle.Bundle) *fc.ValidationReport {
	report := fc.NewValidationReport()
	if b == nil {
		return report
	}

	resources := b.All()

	if v.opts.ParallelValidation && len(resources) > 2 {
		v.validateParallel(ctx, resources, report)
	} else {
		for _, res := range resources {
			if ctx.Err() != nil {
				break
			}
			report.AddIssues(v.validateResource(res))
		}
	}

	for _, rule := range v.registry.Cross() {
		for _, res := range resources {
			if ctx.Err() != nil {
				break
			}
			if !rule.AppliesTo(fc.ResourceType(res.Type())) {
				continue
			}
			report.AddIssues(v.applyCross(rule, res, b))
		}
	}

	summary := report.Summary()
	v.opts.Logger.Info("bundle validated",
		zap.Int("resources", len(resources)),
		zap.Int("errors", summary.Errors),
		zap.Int("warnings", summary.Warnings),
		zap.String("status", string(summary.OverallStatus)),
	)
	return report
}

// validateParallel runs per-resource rules on a bounded worker set and
// merges the per-resource issue lists in Bundle order.
func (v *Validator) validateParallel(ctx context.Context, resources []fc.Resource, report *fc.ValidationReport) {
	workers := v.opts.WorkerCount
	if workers > len(resources) {
		workers = len(resources)
	}

	jobs := make(chan int, len(resources))
	collected := make([][]fc.Issue, len(resources))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				collected[i] = v.validateResource(resources[i])
			}
		}()
	}

	for i := range resources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, issues := range collected {
		report.AddIssues(issues)
	}
}

// validateResource runs all applicable per-resource rules against one
// resource, in registration order.
func (v *Validator) validateResource(res fc.Resource) []fc.Issue {
	var out []fc.Issue
	for _, rule := range v.registry.ForType(fc.ResourceType(res.Type())) {
		start := time.Now()
		issues := rule.Apply(res)
		v.record(rule.ID, start, issues)
		out = append(out, issues...)
	}
	if v.opts.CollectMetrics {
		v.metrics.RecordResourceValidated()
	}
	return out
}

func (v *Validator) applyCross(rule rules.Rule, res fc.Resource, b *bundle.Bundle) []fc.Issue {
	start := time.Now()
	issues := rule.ApplyCross(res, b)
	v.record(rule.ID, start, issues)
	return issues
}

func (v *Validator) record(ruleID string, start time.Time, issues []fc.Issue) {
	if !v.opts.CollectMetrics {
		return
	}
	v.metrics.RecordRule(ruleID, time.Since(start), len(issues))
	for _, issue := range issues {
		v.metrics.RecordIssue(issue.Severity)
	}
}
