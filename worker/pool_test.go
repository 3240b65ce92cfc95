package worker

import (
	"context"
	"fmt"
	"testing"

	fc "github.com/gofhir/converter"
)

// echoGroup returns one mapped record per input record so tests can check
// ordering and counts without a real mapper.
func echoGroup(_ context.Context, job Job) *JobResult {
	result := &JobResult{Seq: job.Seq, GroupID: job.GroupID}
	for _, t := range fc.MappingOrder {
		for range job.Records[t] {
			result.Mapped = append(result.Mapped, MappedRecord{Type: t})
		}
	}
	return result
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{
			Seq:     i,
			GroupID: fmt.Sprintf("P%03d", i),
			Records: map[fc.ResourceType][]fc.LegacyRecord{
				fc.TypePatient: {{"patient_id": fmt.Sprintf("P%03d", i)}},
			},
		}
	}
	return jobs
}

func TestRunBatchOrdersResultsBySeq(t *testing.T) {
	pool := NewPool(echoGroup, 4)

	br := pool.RunBatch(context.Background(), makeJobs(16))
	if br.TotalJobs != 16 || br.CompletedJobs != 16 {
		t.Fatalf("jobs = %d/%d, want 16/16", br.CompletedJobs, br.TotalJobs)
	}
	for i, result := range br.Results {
		if result.Seq != i {
			t.Fatalf("Results[%d].Seq = %d: parallel results must keep submission order", i, result.Seq)
		}
	}
}

func TestRunBatchSmallBatchSequential(t *testing.T) {
	pool := NewPool(echoGroup, 8)

	br := pool.RunBatch(context.Background(), makeJobs(2))
	if len(br.Results) != 2 {
		t.Fatalf("got %d results", len(br.Results))
	}
	for i, result := range br.Results {
		if result.Seq != i {
			t.Errorf("Results[%d].Seq = %d", i, result.Seq)
		}
	}
}

func TestRunBatchEmpty(t *testing.T) {
	pool := NewPool(echoGroup, 4)
	br := pool.RunBatch(context.Background(), nil)
	if len(br.Results) != 0 || br.TotalJobs != 0 {
		t.Errorf("empty batch produced %+v", br)
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(echoGroup, 4)
	br := pool.RunBatch(ctx, makeJobs(8))

	if err := br.FirstError(); err == nil {
		t.Error("cancelled run reported no error")
	}
}

func TestPoolWithoutGroupFunc(t *testing.T) {
	pool := NewPool(nil, 2)
	br := pool.RunBatch(context.Background(), makeJobs(1))
	if br.Results[0].Err != ErrNoGroupFunc {
		t.Errorf("Err = %v, want ErrNoGroupFunc", br.Results[0].Err)
	}
}

func TestPoolStats(t *testing.T) {
	pool := NewPool(echoGroup, 3)
	pool.RunBatch(context.Background(), makeJobs(5))

	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Workers = %d", stats.Workers)
	}
	if stats.JobsSubmitted != 5 || stats.JobsCompleted != 5 {
		t.Errorf("stats = %+v", stats)
	}
}
