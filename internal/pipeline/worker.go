// Package pipeline runs batches of spreadsheet imports through a bounded
// worker pool, publishing per-job progress to the status cache so clients
// can poll long-running batches.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/service"
)

// Job is one spreadsheet queued for import.
type Job struct {
	ID       string
	FileName string
	Data     []byte
	Author   *string
}

// JobResult pairs a job with its outcome. Err is set for structural
// failures; row-level problems live inside Result.
type JobResult struct {
	Job    *Job
	Result *domain.ImportResult
	Err    error
}

type Worker struct {
	imports *service.ImportService
	status  cache.ImportStatusCache

	workerCount int
}

func NewWorker(imports *service.ImportService, status cache.ImportStatusCache, workerCount int) *Worker {
	if workerCount < 1 {
		workerCount = 1
	}
	if status == nil {
		status = cache.NewNoopImportStatusCache()
	}
	return &Worker{imports: imports, status: status, workerCount: workerCount}
}

// ProcessBatch imports the jobs concurrently. One file failing never stops
// the batch; results come back in job order.
func (w *Worker) ProcessBatch(ctx context.Context, jobs []*Job) []JobResult {
	for _, job := range jobs {
		w.setStatus(ctx, job, cache.JobQueued, nil, nil)
	}

	results := make([]JobResult, len(jobs))
	jobChan := make(chan int, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = w.processJob(ctx, jobs[idx])
			}
		}()
	}

	for i := range jobs {
		select {
		case <-ctx.Done():
			// Remaining jobs stay queued; workers drain what was enqueued.
		case jobChan <- i:
			continue
		}
		break
	}
	close(jobChan)
	wg.Wait()

	return results
}

func (w *Worker) processJob(ctx context.Context, job *Job) JobResult {
	w.setStatus(ctx, job, cache.JobRunning, nil, nil)

	result, err := w.imports.ImportSales(ctx, job.FileName, job.Data, job.Author)
	if err != nil {
		log.Error().Err(err).Str("file", job.FileName).Msg("batch import job failed")
		w.setStatus(ctx, job, cache.JobFailed, nil, err)
		return JobResult{Job: job, Err: err}
	}

	w.setStatus(ctx, job, cache.JobDone, result, nil)
	return JobResult{Job: job, Result: result}
}

func (w *Worker) setStatus(ctx context.Context, job *Job, state cache.JobState, result *domain.ImportResult, cause error) {
	status := &cache.ImportJobStatus{
		JobID:    job.ID,
		FileName: job.FileName,
		State:    state,
		Result:   result,
	}
	if cause != nil {
		status.Error = cause.Error()
	}
	if err := w.status.Set(ctx, status); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to publish job status")
	}
}
