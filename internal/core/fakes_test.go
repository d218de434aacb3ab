package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/x-stp/liscan/internal/whois"
)

// step is one scripted lookup attempt.
type step struct {
	status whois.Status
	err    error
	panic  any
}

// fakeQuerier replays steps per label. Labels without a script answer
// Unavailable.
type fakeQuerier struct {
	mu      sync.Mutex
	scripts map[string][]step
	calls   []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{scripts: make(map[string][]step)}
}

func (f *fakeQuerier) script(label string, steps ...step) *fakeQuerier {
	f.scripts[label] = steps
	return f
}

func (f *fakeQuerier) FQDN(label string) string {
	return label + ".li"
}

func (f *fakeQuerier) Query(_ context.Context, label string) (whois.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, label)
	st := step{status: whois.Unavailable}
	if steps := f.scripts[label]; len(steps) > 0 {
		st = steps[0]
		if len(steps) > 1 {
			f.scripts[label] = steps[1:]
		}
	}
	f.mu.Unlock()

	if st.panic != nil {
		panic(st.panic)
	}
	return whois.Result{Domain: f.FQDN(label), Status: st.status}, st.err
}

func (f *fakeQuerier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// sleepRecorder records requested pauses without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.pauses...)
}

// labels is a LabelSource over a fixed slice.
type labels struct {
	items []string
	pos   int
}

func (l *labels) Next() (string, bool) {
	if l.pos >= len(l.items) {
		return "", false
	}
	l.pos++
	return l.items[l.pos-1], true
}

var errTimeout = &whois.NetError{Op: "read", Addr: "127.0.0.1:4343", Timeout: true, Err: errors.New("i/o timeout")}
