package core

/*
liscan — scanner for registrable .li domain labels
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/x-stp/liscan/internal/metrics"
	"github.com/x-stp/liscan/internal/whois"
)

// SleepFunc waits for d or until ctx ends, returning ctx's error in the
// latter case. Tests inject a recording implementation.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock SleepFunc. Non-positive durations return at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer decides how long the scan loop waits between queries.
//
// After every query the loop waits the base delay. A RateLimited outcome adds
// a penalty of five times the base delay (5s when the base is zero) before
// it, and a ServerError adds twice the base (2s when the base is zero).
// An optional token bucket caps queries per minute on top of that.
type Pacer struct {
	base    time.Duration
	sleep   SleepFunc
	limiter *rate.Limiter
	logger  *zap.Logger
}

// PacerOption customises a Pacer.
type PacerOption func(*Pacer)

// WithSleep replaces the wall-clock sleep.
func WithSleep(fn SleepFunc) PacerOption {
	return func(p *Pacer) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithMaxPerMinute caps the query rate. Zero or negative disables the cap.
func WithMaxPerMinute(n int) PacerOption {
	return func(p *Pacer) {
		if n > 0 {
			p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// NewPacer creates the pacer that spaces queries of one scan.
//
// Parameters:
//
//	base: Pause after every query. Negative values are treated as zero.
//	logger: Receives penalty and throttle events. Nil disables logging.
//	opts: Optional overrides, e.g. WithSleep or WithMaxPerMinute.
//
// Returns:
//
//	A *Pacer ready for use by a single scan loop.
func NewPacer(base time.Duration, logger *zap.Logger, opts ...PacerOption) *Pacer {
	if base < 0 {
		base = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pacer{base: base, sleep: Sleep, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseDelay returns the pause applied after every query.
func (p *Pacer) BaseDelay() time.Duration {
	return p.base
}

// Penalty returns the extra wait owed for status, or zero.
func (p *Pacer) Penalty(status whois.Status) time.Duration {
	switch status {
	case whois.RateLimited:
		if p.base > 0 {
			return p.base * RateLimitPenaltyFactor
		}
		return RateLimitPenaltyFloor
	case whois.ServerError:
		if p.base > 0 {
			return p.base * ServerErrorPenaltyFactor
		}
		return ServerErrorPenaltyFloor
	}
	return 0
}

// Wait blocks until the per-minute cap allows another query. It returns at
// once when no cap is configured.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	metrics.GetMetrics().RecordPause(metrics.PauseThrottle, time.Since(start))
	return nil
}

// After performs the post-query pause for status: the penalty, if any, then
// the base delay. It returns early with ctx's error if ctx ends.
func (p *Pacer) After(ctx context.Context, status whois.Status) error {
	if penalty := p.Penalty(status); penalty > 0 {
		reason := metrics.PauseRateLimited
		if status == whois.ServerError {
			reason = metrics.PauseServerError
		}
		p.logger.Warn("server pushed back, pausing",
			zap.Stringer("status", status),
			zap.Duration("pause", penalty))
		if err := p.sleep(ctx, penalty); err != nil {
			return err
		}
		metrics.GetMetrics().RecordPause(reason, penalty)
	}
	if p.base > 0 {
		if err := p.sleep(ctx, p.base); err != nil {
			return err
		}
		metrics.GetMetrics().RecordPause(metrics.PauseBase, p.base)
	}
	return nil
}
