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

	"github.com/x-stp/liscan/internal/metrics"
	"github.com/x-stp/liscan/internal/whois"
)

// Querier performs a single lookup attempt. *whois.Client implements it.
type Querier interface {
	Query(ctx context.Context, label string) (whois.Result, error)
	FQDN(label string) string
}

// Retrier wraps a Querier with the retry policy: network failures are tried
// again up to maxRetries extra times, waiting RetryDelay in between. Every
// other outcome, including RateLimited and ServerError, is final.
type Retrier struct {
	querier    Querier
	maxRetries int
	delay      time.Duration
	sleep      SleepFunc
	logger     *zap.Logger
}

// RetryOption customises a Retrier.
type RetryOption func(*Retrier)

// WithRetryDelay overrides RetryDelay.
func WithRetryDelay(d time.Duration) RetryOption {
	return func(r *Retrier) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRetrySleep replaces the wall-clock sleep between attempts.
func WithRetrySleep(fn SleepFunc) RetryOption {
	return func(r *Retrier) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// NewRetrier wraps q with the scan retry policy.
//
// Parameters:
//
//	q: Performs one lookup attempt; usually a *whois.Client.
//	maxRetries: Extra attempts after a retryable failure. Negative values
//	  mean no retries.
//	logger: Receives retry and give-up events. Nil disables logging.
//	opts: Optional overrides for the retry delay and sleep function.
//
// Returns:
//
//	A *Retrier whose Lookup makes at most 1+maxRetries attempts per label.
func NewRetrier(q Querier, maxRetries int, logger *zap.Logger, opts ...RetryOption) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retrier{
		querier:    q,
		maxRetries: maxRetries,
		delay:      RetryDelay,
		sleep:      Sleep,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxRetries returns the number of extra attempts allowed.
func (r *Retrier) MaxRetries() int {
	return r.maxRetries
}

// Lookup queries label, retrying retryable failures, and returns the final
// Result with Attempts set. It performs at most 1+MaxRetries attempts. When
// ctx ends the last Result is returned as is.
func (r *Retrier) Lookup(ctx context.Context, label string) whois.Result {
	for attempt := 1; ; attempt++ {
		res, err := r.querier.Query(ctx, label)
		res.Attempts = attempt
		if res.Domain == "" {
			res.Domain = r.querier.FQDN(label)
		}
		if err == nil {
			return res
		}

		if !IsRetryable(err) || ctx.Err() != nil {
			return res
		}
		if res.Status != whois.NetworkError {
			res.Status = whois.NetworkError
		}
		if attempt > r.maxRetries {
			r.logger.Warn("giving up after network errors",
				zap.String("domain", res.Domain),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return res
		}

		r.logger.Debug("retrying lookup",
			zap.String("domain", res.Domain),
			zap.Int("attempt", attempt),
			zap.Error(err))
		metrics.GetMetrics().RecordRetry()
		if sleepErr := r.sleep(ctx, r.delay); sleepErr != nil {
			return res
		}
		metrics.GetMetrics().RecordPause(metrics.PauseRetry, r.delay)
	}
}
