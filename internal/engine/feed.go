package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// MinDetectionInterval is the minimum spacing between detector runs.
const MinDetectionInterval = 100 * time.Millisecond

// Sampler produces one detector reading from the newest frame.
type Sampler interface {
	Sample(ctx context.Context) (domain.Sample, error)
}

// SampleSink accepts samples without blocking. *Session implements it.
type SampleSink interface {
	Detect(sample domain.Sample) bool
	Done() <-chan struct{}
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithInterval overrides MinDetectionInterval.
func WithInterval(d time.Duration) FeedOption {
	return func(f *Feed) {
		f.interval = d
	}
}

// Feed polls a Sampler and hands readings to a session. Samples are never
// queued: one that the session cannot take right away is dropped.
type Feed struct {
	sampler  Sampler
	sink     SampleSink
	log      *logger.Logger
	interval time.Duration

	submitted atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewFeed creates a feed.
func NewFeed(sampler Sampler, sink SampleSink, log *logger.Logger, opts ...FeedOption) *Feed {
	f := &Feed{
		sampler:  sampler,
		sink:     sink,
		log:      log,
		interval: MinDetectionInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run samples until the session ends or ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.log.Debug("detector feed started (interval=%s)", f.interval)
	defer func() {
		f.log.Debug("detector feed stopped (submitted=%d dropped=%d failed=%d)",
			f.submitted.Load(), f.dropped.Load(), f.failed.Load())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.sink.Done():
			return
		case <-ticker.C:
			f.step(ctx)
		}
	}
}

func (f *Feed) step(ctx context.Context) {
	sample, err := f.sampler.Sample(ctx)
	if err != nil {
		// Log the first failure and every 50th after that.
		if n := f.failed.Add(1); n == 1 || n%50 == 0 {
			f.log.Warn("detector sample failed (%d so far): %v", n, err)
		}
		return
	}
	if f.sink.Detect(sample) {
		f.submitted.Add(1)
		return
	}
	f.dropped.Add(1)
}

// Submitted returns how many samples the session accepted.
func (f *Feed) Submitted() uint64 { return f.submitted.Load() }

// Dropped returns how many samples were discarded.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }
