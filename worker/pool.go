package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// GroupFunc maps one patient group. Implementations must be safe for
// concurrent use across groups.
type GroupFunc func(ctx context.Context, job Job) *JobResult

// Pool runs group mapping jobs with bounded parallelism.
type Pool struct {
	run     GroupFunc
	workers int

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	totalDuration atomic.Uint64
}

// NewPool creates a pool. If workers <= 0, it defaults to
// runtime.NumCPU().
func NewPool(run GroupFunc, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{run: run, workers: workers}
}

// Workers returns the configured parallelism.
func (p *Pool) Workers() int {
	return p.workers
}

// RunBatch maps all jobs and returns their results ordered by Seq.
// Small batches run sequentially; the parallelism overhead is not worth
// paying for one or two groups.
func (p *Pool) RunBatch(ctx context.Context, jobs []Job) *BatchResult {
	if len(jobs) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}

	p.jobsSubmitted.Add(uint64(len(jobs)))

	if len(jobs) <= 2 || p.workers == 1 {
		return p.runSequential(ctx, jobs)
	}
	return p.runParallel(ctx, jobs)
}

func (p *Pool) runSequential(ctx context.Context, jobs []Job) *BatchResult {
	br := &BatchResult{
		Results:   make([]*JobResult, 0, len(jobs)),
		TotalJobs: len(jobs),
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			br.Results = append(br.Results, &JobResult{
				Seq:     job.Seq,
				GroupID: job.GroupID,
				Err:     ctx.Err(),
			})
			continue
		default:
		}

		result := p.process(ctx, job)
		br.Results = append(br.Results, result)
		br.CompletedJobs++
		br.TotalDuration += result.Duration
	}
	return br
}

func (p *Pool) runParallel(ctx context.Context, jobs []Job) *BatchResult {
	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobsChan := make(chan int, len(jobs))
	results := make([]*JobResult, len(jobs))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobsChan {
				select {
				case <-ctx.Done():
					results[i] = &JobResult{
						Seq:     jobs[i].Seq,
						GroupID: jobs[i].GroupID,
						Err:     ctx.Err(),
					}
					continue
				default:
				}
				results[i] = p.process(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		jobsChan <- i
	}
	close(jobsChan)
	wg.Wait()

	br := &BatchResult{
		Results:   results,
		TotalJobs: len(jobs),
	}
	for _, r := range results {
		if r != nil && r.Err == nil {
			br.CompletedJobs++
			br.TotalDuration += r.Duration
		}
	}
	return br
}

func (p *Pool) process(ctx context.Context, job Job) *JobResult {
	start := time.Now()

	if p.run == nil {
		return &JobResult{
			Seq:     job.Seq,
			GroupID: job.GroupID,
			Err:     ErrNoGroupFunc,
		}
	}

	result := p.run(ctx, job)
	if result == nil {
		result = &JobResult{Seq: job.Seq, GroupID: job.GroupID}
	}
	result.Duration = time.Since(start)

	p.jobsCompleted.Add(1)
	p.totalDuration.Add(uint64(result.Duration))
	return result
}

// Stats returns cumulative pool statistics across batches.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains cumulative pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	AvgDuration   time.Duration
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / completed)
}

// ErrNoGroupFunc is returned in job results when the pool was built
// without a mapping function.
var ErrNoGroupFunc = poolError("no group mapping function configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
