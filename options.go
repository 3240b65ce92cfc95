package fhirconverter

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Option configures a transformation or validation run.
type Option func(*Options)

// Options holds all configuration shared by the mapping and validation
// engines.
type Options struct {
	// SourceSystem is the label of the legacy EHR system, used to tag
	// identifiers and untranslated codes.
	SourceSystem string

	// WorkerCount is the number of parallel workers for patient-group
	// mapping and per-resource validation.
	WorkerCount int

	// ParallelGroups enables mapping independent patient groups in parallel.
	ParallelGroups bool

	// ParallelValidation enables validating resources in parallel.
	// Cross-resource rules always run sequentially after the parallel pass.
	ParallelValidation bool

	// CollectMetrics enables performance metric collection.
	CollectMetrics bool

	// Logger receives progress and diagnostic logging.
	Logger *zap.Logger

	// Now supplies the generation timestamp for Bundle metadata.
	// Injectable so that test fixtures are reproducible.
	Now func() time.Time
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		SourceSystem:       "unknown",
		WorkerCount:        runtime.NumCPU(),
		ParallelGroups:     true,
		ParallelValidation: true,
		CollectMetrics:     true,
		Logger:             zap.NewNop(),
		Now:                time.Now,
	}
}

// Apply applies the given options and returns the resulting configuration.
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSourceSystem sets the source-system label.
func WithSourceSystem(label string) Option {
	return func(o *Options) {
		if label != "" {
			o.SourceSystem = label
		}
	}
}

// WithWorkerCount sets the worker count. Values <= 0 fall back to
// runtime.NumCPU().
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.WorkerCount = n
	}
}

// WithParallelGroups enables or disables parallel patient-group mapping.
func WithParallelGroups(enable bool) Option {
	return func(o *Options) {
		o.ParallelGroups = enable
	}
}

// WithParallelValidation enables or disables parallel resource validation.
func WithParallelValidation(enable bool) Option {
	return func(o *Options) {
		o.ParallelValidation = enable
	}
}

// WithMetrics enables or disables metric collection.
func WithMetrics(enable bool) Option {
	return func(o *Options) {
		o.CollectMetrics = enable
	}
}

// WithLogger sets the logger. A nil logger is replaced by a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
	}
}

// WithClock sets the timestamp source for Bundle metadata.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}
