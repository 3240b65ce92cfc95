package fhirconverter

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks transformation and validation performance using lock-free
// atomic operations. All methods are safe for concurrent use.
type Metrics struct {
	// Mapping counts
	recordsAttempted atomic.Uint64
	recordsMapped    atomic.Uint64
	recordsFailed    atomic.Uint64

	// Mapping timing (nanoseconds)
	mappingTimeTotal atomic.Uint64
	mappingTimeMin   atomic.Uint64
	mappingTimeMax   atomic.Uint64

	// Validation counts
	resourcesValidated atomic.Uint64
	issuesErrors       atomic.Uint64
	issuesWarnings     atomic.Uint64
	issuesInfo         atomic.Uint64

	// Per-rule timing
	ruleTiming sync.Map // map[string]*ruleMetrics
}

// ruleMetrics tracks metrics for a single validation rule.
type ruleMetrics struct {
	invocations atomic.Uint64
	totalTime   atomic.Uint64 // nanoseconds
	issuesFound atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so the first value becomes the minimum
	m.mappingTimeMin.Store(^uint64(0))
	return m
}

// RecordMapping records one attempted record mapping.
func (m *Metrics) RecordMapping(duration time.Duration, ok bool) {
	m.recordsAttempted.Add(1)
	if ok {
		m.recordsMapped.Add(1)
	} else {
		m.recordsFailed.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	m.mappingTimeTotal.Add(ns)

	for {
		old := m.mappingTimeMin.Load()
		if ns >= old {
			break
		}
		if m.mappingTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.mappingTimeMax.Load()
		if ns <= old {
			break
		}
		if m.mappingTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordIssue records one validation issue by severity.
func (m *Metrics) RecordIssue(sev Severity) {
	switch sev {
	case SeverityError:
		m.issuesErrors.Add(1)
	case SeverityWarning:
		m.issuesWarnings.Add(1)
	case SeverityInfo:
		m.issuesInfo.Add(1)
	}
}

// RecordResourceValidated records one completed per-resource validation pass.
func (m *Metrics) RecordResourceValidated() {
	m.resourcesValidated.Add(1)
}

// RecordRule records one rule evaluation.
func (m *Metrics) RecordRule(ruleID string, duration time.Duration, issues int) {
	v, _ := m.ruleTiming.LoadOrStore(ruleID, &ruleMetrics{})
	rm := v.(*ruleMetrics)
	rm.invocations.Add(1)
	rm.totalTime.Add(uint64(duration.Nanoseconds()))
	rm.issuesFound.Add(uint64(issues))
}

// MetricsSnapshot is a point-in-time copy of the collected metrics.
type MetricsSnapshot struct {
	RecordsAttempted   uint64
	RecordsMapped      uint64
	RecordsFailed      uint64
	MappingTimeTotal   time.Duration
	MappingTimeMin     time.Duration
	MappingTimeMax     time.Duration
	ResourcesValidated uint64
	IssuesErrors       uint64
	IssuesWarnings     uint64
	IssuesInfo         uint64
	Rules              map[string]RuleSnapshot
}

// RuleSnapshot is a point-in-time copy of one rule's metrics.
type RuleSnapshot struct {
	Invocations uint64
	TotalTime   time.Duration
	IssuesFound uint64
}

// Snapshot returns a consistent copy of the current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		RecordsAttempted:   m.recordsAttempted.Load(),
		RecordsMapped:      m.recordsMapped.Load(),
		RecordsFailed:      m.recordsFailed.Load(),
		MappingTimeTotal:   time.Duration(m.mappingTimeTotal.Load()),
		MappingTimeMax:     time.Duration(m.mappingTimeMax.Load()),
		ResourcesValidated: m.resourcesValidated.Load(),
		IssuesErrors:       m.issuesErrors.Load(),
		IssuesWarnings:     m.issuesWarnings.Load(),
		IssuesInfo:         m.issuesInfo.Load(),
		Rules:              make(map[string]RuleSnapshot),
	}

	if min := m.mappingTimeMin.Load(); min != ^uint64(0) {
		snap.MappingTimeMin = time.Duration(min)
	}

	m.ruleTiming.Range(func(key, value any) bool {
		rm := value.(*ruleMetrics)
		snap.Rules[key.(string)] = RuleSnapshot{
			Invocations: rm.invocations.Load(),
			TotalTime:   time.Duration(rm.totalTime.Load()),
			IssuesFound: rm.issuesFound.Load(),
		}
		return true
	})

	return snap
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.recordsAttempted.Store(0)
	m.recordsMapped.Store(0)
	m.recordsFailed.Store(0)
	m.mappingTimeTotal.Store(0)
	m.mappingTimeMin.Store(^uint64(0))
	m.mappingTimeMax.Store(0)
	m.resourcesValidated.Store(0)
	m.issuesErrors.Store(0)
	m.issuesWarnings.Store(0)
	m.issuesInfo.Store(0)
	m.ruleTiming.Range(func(key, _ any) bool {
		m.ruleTiming.Delete(key)
		return true
	})
}
