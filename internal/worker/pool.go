package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igcollector/pkg/collector"
	"igcollector/pkg/logger"
	"igcollector/pkg/retry"
)

// Job is one collection task queued for the workers
type Job struct {
	Request collector.Request
}

// JobResult is the outcome of one processed job
type JobResult struct {
	Job      Job
	Result   *collector.Result
	Err      error
	Duration time.Duration
	Attempts int
}

// Runner executes one collection task; the collector service implements it
type Runner interface {
	Run(ctx context.Context, req collector.Request) (*collector.Result, error)
}

// Pool fans collection jobs out over a fixed set of workers. Each worker
// leases its account through the Runner, so the number of workers can exceed
// the number of accounts: workers that find the pool exhausted back off and
// retry instead of failing the job.
type Pool struct {
	numWorkers  int
	runner      Runner
	maxAttempts int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger
}

// New creates a worker pool over the given runner
func New(numWorkers int, runner Runner, maxAttempts int, log logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &Pool{
		numWorkers:  numWorkers,
		runner:      runner,
		maxAttempts: maxAttempts,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan JobResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		logger:      log,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue, waits for in-flight jobs, and shuts the pool down
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Info("worker pool stopped")
}

// Abort cancels in-flight jobs without waiting for the queue to drain
func (p *Pool) Abort() {
	p.cancel()
}

// Submit queues a job for processing
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel of processed job results
func (p *Pool) Results() <-chan JobResult {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.process(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// process runs one job, retrying while the pool has no account to give
func (p *Pool) process(job Job, workerID int) JobResult {
	start := time.Now()

	attempts := 0
	cfg := &retry.Config{
		MaxAttempts: p.maxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.2,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: p.ctx,
		Logger:  p.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			p.logger.DebugWithFields("worker retrying job", map[string]interface{}{
				"worker_id": workerID,
				"target":    job.Request.Username,
				"attempt":   attempt,
				"delay_ms":  delay.Milliseconds(),
			})
		},
	}

	result, err := retry.DoWithResult(func() (*collector.Result, error) {
		attempts++
		return p.runner.Run(p.ctx, job.Request)
	}, cfg)

	return JobResult{
		Job:      job,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
		Attempts: attempts,
	}
}
