package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	fc "github.com/gofhir/converter"
	"github.com/gofhir/converter/bundle"
	"github.com/gofhir/converter/mapper"
	"github.com/gofhir/converter/refindex"
	"github.com/gofhir/converter/terminology"
	"github.com/gofhir/converter/worker"
)

// Transformer maps legacy record batches into FHIR Bundles. It is safe
// for concurrent use; each Transform call runs against its own reference
// index and Bundle.
type Transformer struct {
	opts       *fc.Options
	translator *terminology.CodeTranslator
	mappers    []mapper.Mapper
	metrics    *fc.Metrics
}

// NewTransformer creates a Transformer with the given options.
func NewTransformer(opts ...fc.Option) *Transformer {
	o := fc.ApplyOptions(opts...)
	translator := terminology.NewCodeTranslator(o.SourceSystem)
	return &Transformer{
		opts:       o,
		translator: translator,
		mappers:    mapper.All(o.SourceSystem, translator),
		metrics:    fc.NewMetrics(),
	}
}

// Translator returns the transformer's code translator, so callers can
// register source-specific code mappings before transforming.
func (t *Transformer) Translator() *terminology.CodeTranslator {
	return t.translator
}

// Metrics returns the transformer's cumulative metrics.
func (t *Transformer) Metrics() *fc.Metrics {
	return t.metrics
}

// Transform maps one batch of legacy records into a Bundle and a
// transformation report.
//
// Records are partitioned into per-patient groups and each group maps
// independently, in parallel when enabled. Within a group, types map in
// dependency order so that references resolve against already registered
// targets. Group results merge in first-seen patient order regardless of
// completion order, so output is deterministic for identical input.
//
// Individual record failures are recoverable and land in the report; the
// returned error is non-nil only for a malformed batch or a cancelled
// context.
func (t *Transformer) Transform(ctx context.Context, batch fc.Batch) (*bundle.Bundle, *bundle.TransformReport, error) {
	records, err := normalizeBatch(batch)
	if err != nil {
		return nil, nil, err
	}

	groups := partition(records)
	idx := refindex.New(t.opts.SourceSystem)

	jobs := make([]worker.Job, len(groups))
	for i, g := range groups {
		jobs[i] = worker.Job{Seq: g.seq, GroupID: g.id, Records: g.records}
	}

	workers := t.opts.WorkerCount
	if !t.opts.ParallelGroups {
		workers = 1
	}
	pool := worker.NewPool(func(ctx context.Context, job worker.Job) *worker.JobResult {
		return t.mapGroup(ctx, job, idx)
	}, workers)

	br := pool.RunBatch(ctx, jobs)
	if err := br.FirstError(); err != nil {
		return nil, nil, err
	}

	asm := bundle.NewAssembler(t.opts.SourceSystem, t.opts.Now())
	for _, result := range br.Results {
		for _, mapped := range result.Mapped {
			asm.Add(mapped.Type, mapped.Resources)
		}
		for _, failure := range result.Failures {
			asm.Fail(failure)
		}
	}

	b, report := asm.Finalize()
	t.opts.Logger.Info("batch transformed",
		zap.String("sourceSystem", t.opts.SourceSystem),
		zap.Int("groups", len(groups)),
		zap.Int("resources", b.Count()),
		zap.Int("failures", report.TotalFailed()),
	)
	return b, report, nil
}

// mapGroup maps one patient group's records in dependency order against
// the shared reference index.
func (t *Transformer) mapGroup(ctx context.Context, job worker.Job, idx *refindex.Index) *worker.JobResult {
	result := &worker.JobResult{Seq: job.Seq, GroupID: job.GroupID}

	for _, m := range t.mappers {
		records := job.Records[m.ResourceType()]
		for _, record := range records {
			select {
			case <-ctx.Done():
				result.Err = ctx.Err()
				return result
			default:
			}

			start := time.Now()
			resources, failure := m.Map(record, idx)
			if t.opts.CollectMetrics {
				t.metrics.RecordMapping(time.Since(start), failure == nil)
			}

			if failure != nil {
				result.Failures = append(result.Failures, *failure)
				t.opts.Logger.Debug("record mapping failed",
					zap.String("group", job.GroupID),
					zap.String("resourceType", string(failure.ResourceType)),
					zap.String("legacyId", failure.LegacyID),
					zap.String("reason", string(failure.Reason)),
				)
				continue
			}
			result.Mapped = append(result.Mapped, worker.MappedRecord{
				Type:      m.ResourceType(),
				Resources: resources,
			})
		}
	}
	return result
}
