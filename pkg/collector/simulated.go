package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"igcollector/pkg/auth"
	errs "igcollector/pkg/errors"
)

// Simulated is a collector that fabricates results instead of talking to the
// platform. It exercises the full pool lifecycle, including failures, and
// backs dry runs and load tests.
type Simulated struct {
	// FailureRate is the probability in [0,1] that a collection fails
	FailureRate float64

	// Latency is the simulated duration of one collection
	Latency time.Duration

	// FailureKinds cycles through the error types injected on failure;
	// empty means rate limit errors only
	FailureKinds []errs.ErrorType

	mu       sync.Mutex
	rng      *rand.Rand
	failures int
}

// NewSimulated creates a simulated collector
func NewSimulated(failureRate float64, latency time.Duration) *Simulated {
	return &Simulated{
		FailureRate: failureRate,
		Latency:     latency,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Collect fabricates a result after the configured latency
func (s *Simulated) Collect(ctx context.Context, creds *auth.Credentials, req Request) (*Result, error) {
	jitter := time.Duration(s.intn(50)) * time.Millisecond

	timer := time.NewTimer(s.Latency + jitter)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	}

	if s.shouldFail() {
		kind := s.nextFailureKind()
		return nil, errs.Newf(kind, "simulated %s collecting %s", kind, req.Username)
	}

	now := time.Now()
	result := &Result{
		Username:    req.Username,
		CollectedAt: now,
	}

	if req.IncludeStories {
		for i := 0; i < 3; i++ {
			result.Stories = append(result.Stories, MediaItem{
				ID:      fmt.Sprintf("story-%s-%d", req.Username, i),
				Type:    MediaTypeStory,
				URL:     fmt.Sprintf("https://example.invalid/%s/story/%d", req.Username, i),
				TakenAt: now.Add(-time.Duration(i) * time.Hour),
			})
		}
	}

	if req.IncludeFeed {
		count := 5
		if req.MaxFeedPosts > 0 && req.MaxFeedPosts < count {
			count = req.MaxFeedPosts
		}
		for i := 0; i < count; i++ {
			result.FeedPosts = append(result.FeedPosts, MediaItem{
				ID:      fmt.Sprintf("post-%s-%d", req.Username, i),
				Type:    MediaTypePhoto,
				URL:     fmt.Sprintf("https://example.invalid/%s/p/%d", req.Username, i),
				TakenAt: now.Add(-time.Duration(i) * 24 * time.Hour),
			})
		}
	}

	return result, nil
}

func (s *Simulated) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Simulated) shouldFail() bool {
	if s.FailureRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.FailureRate
}

func (s *Simulated) nextFailureKind() errs.ErrorType {
	if len(s.FailureKinds) == 0 {
		return errs.ErrorTypeRateLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := s.FailureKinds[s.failures%len(s.FailureKinds)]
	s.failures++
	return kind
}
