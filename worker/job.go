// Package worker runs per-patient mapping jobs, sequentially for small
// batches and on a bounded goroutine pool otherwise. Results always come
// back in submission order, so parallel runs produce the same output as
// sequential ones.
package worker

import (
	"time"

	fc "github.com/gofhir/converter"
)

// Job is the mapping work for one patient group: every legacy record,
// of every resource type, belonging to one patient.
type Job struct {
	// Seq is the job's position in the batch; results are ordered by it.
	Seq int

	// GroupID is the legacy patient id the group belongs to. Records that
	// name no patient travel in a group with an empty GroupID.
	GroupID string

	// Records holds the group's legacy records by target resource type.
	Records map[fc.ResourceType][]fc.LegacyRecord
}

// MappedRecord is the outcome of one successfully mapped legacy record.
// A single record may fan out into several resources.
type MappedRecord struct {
	Type      fc.ResourceType
	Resources []fc.Resource
}

// JobResult is the outcome of one group mapping job.
type JobResult struct {
	// Seq matches the Job.Seq that produced this result.
	Seq int

	// GroupID matches the Job.GroupID.
	GroupID string

	// Mapped lists the successfully mapped records in mapping order.
	Mapped []MappedRecord

	// Failures lists the records that could not be mapped, in order.
	Failures []fc.MappingFailure

	// Err is set when the job was cut short, for example by context
	// cancellation. Mapping failures are data, not errors.
	Err error

	// Duration is the time spent mapping the group.
	Duration time.Duration
}

// BatchResult aggregates the results of one batch run.
type BatchResult struct {
	// Results holds one result per job, ordered by Seq.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs that ran to completion.
	CompletedJobs int

	// TotalDuration is the summed mapping time across all jobs.
	TotalDuration time.Duration
}

// FailureCount returns the number of mapping failures across all jobs.
func (br *BatchResult) FailureCount() int {
	n := 0
	for _, r := range br.Results {
		if r != nil {
			n += len(r.Failures)
		}
	}
	return n
}

// FirstError returns the first job error in Seq order, or nil.
func (br *BatchResult) FirstError() error {
	for _, r := range br.Results {
		if r != nil && r.Err != nil {
			return r.Err
		}
	}
	return nil
}
