package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-stp/liscan/internal/whois"
)

type collectSink struct {
	mu      sync.Mutex
	results []whois.Result
}

func (c *collectSink) Handle(res whois.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
	return nil
}

func (c *collectSink) domains() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.results))
	for _, r := range c.results {
		out = append(out, r.Domain)
	}
	return out
}

func newTestScanner(q *fakeQuerier, items []string, sleeps *sleepRecorder, base time.Duration, sinks ...Sink) *Scanner {
	retrier := NewRetrier(q, 2, nil, WithRetrySleep(sleeps.Sleep))
	pacer := NewPacer(base, nil, WithSleep(sleeps.Sleep))
	return NewScanner(&labels{items: items}, retrier, pacer, nil, sinks...)
}

func TestScannerRunsInOrderAndCounts(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier().
		script("aa", step{status: whois.Available}).
		script("ab", step{status: whois.Unavailable}).
		script("ac", step{status: whois.RateLimited}).
		script("ad", step{status: whois.ServerError}).
		script("ae", step{status: whois.NetworkError, err: errTimeout})
	sink := &collectSink{}
	sleeps := &sleepRecorder{}

	s := newTestScanner(q, []string{"aa", "ab", "ac", "ad", "ae"}, sleeps, time.Second, sink)
	snap, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"aa.li", "ab.li", "ac.li", "ad.li", "ae.li"}, sink.domains())
	assert.EqualValues(t, 5, snap.Queried)
	assert.EqualValues(t, 1, snap.Available)
	assert.EqualValues(t, 1, snap.Unavailable)
	assert.EqualValues(t, 1, snap.RateLimited)
	assert.EqualValues(t, 2, snap.Errored)
	assert.EqualValues(t, 2, snap.Retries)
	assert.NotEmpty(t, snap.RunID)
	assert.InDelta(t, 40.0, snap.SuccessRate(), 0.001)

	want := []time.Duration{
		time.Second,                  // aa
		time.Second,                  // ab
		5 * time.Second, time.Second, // ac
		2 * time.Second, time.Second, // ad
		RetryDelay, RetryDelay, // ae retries
		time.Second, // ae
	}
	assert.Equal(t, want, sleeps.recorded())
}

func TestScannerEmptySource(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier()
	snap, err := newTestScanner(q, nil, &sleepRecorder{}, time.Second).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, snap.Queried)
	assert.Zero(t, q.callCount())
	assert.Zero(t, snap.SuccessRate())
}

func TestScannerPanicBecomesUnknownError(t *testing.T) {
	t.Parallel()

	q := newFakeQuerier().script("bad", step{panic: "kaboom"})
	sink := &collectSink{}

	snap, err := newTestScanner(q, []string{"bad", "good"}, &sleepRecorder{}, 0, sink).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.results, 2)
	assert.Equal(t, whois.UnknownError, sink.results[0].Status)
	assert.Equal(t, "bad.li", sink.results[0].Domain)
	assert.Contains(t, sink.results[0].Raw, "kaboom")
	assert.Equal(t, whois.Unavailable, sink.results[1].Status)
	assert.EqualValues(t, 1, snap.Errored)
}

func TestScannerSinkErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	failing := SinkFunc(func(whois.Result) error { return errors.New("disk full") })
	sink := &collectSink{}

	snap, err := newTestScanner(newFakeQuerier(), []string{"a", "b"}, &sleepRecorder{}, 0, failing, sink).Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, snap.Queried)
	assert.Len(t, sink.results, 2)
}

func TestScannerCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := newFakeQuerier()
	snap, err := newTestScanner(q, []string{"a"}, &sleepRecorder{}, 0).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, snap.Queried)
	assert.Zero(t, q.callCount())
}

func TestScannerCancelledMidRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := SinkFunc(func(res whois.Result) error {
		if res.Domain == "b.li" {
			cancel()
		}
		return nil
	})

	snap, err := newTestScanner(newFakeQuerier(), []string{"a", "b", "c"}, &sleepRecorder{}, time.Second, sink).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 2, snap.Queried)
}

func TestScannerLoopPanicAborts(t *testing.T) {
	t.Parallel()

	sink := SinkFunc(func(res whois.Result) error {
		if res.Domain == "b.li" {
			panic("sink exploded")
		}
		return nil
	})

	snap, err := newTestScanner(newFakeQuerier(), []string{"a", "b", "c"}, &sleepRecorder{}, 0, sink).Run(context.Background())

	assert.ErrorIs(t, err, ErrScanAborted)
	assert.EqualValues(t, 2, snap.Queried)
}

func TestSnapshotRate(t *testing.T) {
	t.Parallel()

	_, ok := Snapshot{Queried: 10, Elapsed: 5 * time.Millisecond}.Rate()
	assert.False(t, ok)

	rate, ok := Snapshot{Queried: 10, Elapsed: 2 * time.Second}.Rate()
	assert.True(t, ok)
	assert.InDelta(t, 5.0, rate, 0.001)
}

func TestStatisticsFinishFreezesElapsed(t *testing.T) {
	t.Parallel()

	s := NewScanStatistics()
	s.Finish()
	first := s.Elapsed()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, s.Elapsed())
}
