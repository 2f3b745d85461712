package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcollector/pkg/collector"
	errs "igcollector/pkg/errors"
	"igcollector/pkg/logger"
)

// mockRunner is a Runner that counts calls and can fail a fixed number of
// times before succeeding
type mockRunner struct {
	calls        atomic.Int64
	failuresLeft atomic.Int64
	failWith     error
	delay        time.Duration
}

func (m *mockRunner) Run(ctx context.Context, req collector.Request) (*collector.Result, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.failuresLeft.Add(-1) >= 0 {
		return nil, m.failWith
	}
	return &collector.Result{Username: req.Username}, nil
}

func TestPoolProcessesAllJobs(t *testing.T) {
	runner := &mockRunner{delay: 5 * time.Millisecond}
	p := New(3, runner, 3, logger.NewTestLogger())
	p.Start()

	var (
		mu      sync.Mutex
		results []JobResult
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range p.Results() {
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}
	}()

	numJobs := 10
	for i := 0; i < numJobs; i++ {
		job := Job{Request: collector.Request{Username: fmt.Sprintf("target%d", i)}}
		require.NoError(t, p.Submit(job))
	}

	p.Stop()
	wg.Wait()

	assert.Len(t, results, numJobs)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.NotNil(t, r.Result)
		assert.Equal(t, 1, r.Attempts)
	}
	assert.Equal(t, int64(numJobs), runner.calls.Load())
}

func TestPoolRetriesOnExhaustion(t *testing.T) {
	runner := &mockRunner{
		failWith: errs.New(errs.ErrorTypePoolExhausted, "no eligible accounts"),
	}
	runner.failuresLeft.Store(2)

	p := New(1, runner, 5, logger.NewTestLogger())
	p.Start()

	require.NoError(t, p.Submit(Job{Request: collector.Request{Username: "target"}}))

	var result JobResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range p.Results() {
			result = r
		}
	}()

	p.Stop()
	wg.Wait()

	require.NoError(t, result.Err, "exhaustion clears after other workers release")
	assert.Equal(t, 3, result.Attempts)
}

func TestPoolGivesUpOnNonRetryable(t *testing.T) {
	runner := &mockRunner{
		failWith: errs.New(errs.ErrorTypeAuth, "login rejected"),
	}
	runner.failuresLeft.Store(100)

	p := New(1, runner, 5, logger.NewTestLogger())
	p.Start()

	require.NoError(t, p.Submit(Job{Request: collector.Request{Username: "target"}}))

	var result JobResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range p.Results() {
			result = r
		}
	}()

	p.Stop()
	wg.Wait()

	require.Error(t, result.Err)
	assert.Equal(t, 1, result.Attempts, "auth failures are not retried")
}

func TestPoolSubmitAfterAbort(t *testing.T) {
	runner := &mockRunner{}
	p := New(1, runner, 3, logger.NewTestLogger())
	p.Start()

	p.Abort()

	err := p.Submit(Job{Request: collector.Request{Username: "target"}})
	require.Error(t, err)
}
