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
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/x-stp/liscan/internal/metrics"
	"github.com/x-stp/liscan/internal/whois"
)

// LabelSource yields candidate labels in order. candidate.Pipeline
// implements it.
type LabelSource interface {
	Next() (label string, ok bool)
}

// Sink receives every final Result in order. A Sink error is logged and the
// scan continues.
type Sink interface {
	Handle(res whois.Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(res whois.Result) error

// Handle calls f(res).
func (f SinkFunc) Handle(res whois.Result) error {
	return f(res)
}

// Scanner runs the sequential scan loop: pull a label, look it up with
// retries, record and publish the result, pause. One query is in flight at
// a time.
type Scanner struct {
	source  LabelSource
	retrier *Retrier
	pacer   *Pacer
	sinks   []Sink
	stats   *ScanStatistics
	logger  *zap.Logger
}

// NewScanner wires a scan loop around a label source.
//
// Parameters:
//
//	source: Yields the labels to query, in order.
//	retrier: Runs each lookup under the retry policy.
//	pacer: Spaces consecutive queries. Nil means no pauses at all.
//	logger: Receives per-label and lifecycle events. Nil disables logging.
//	sinks: Receive every classified result, in order.
//
// Returns:
//
//	A *Scanner with fresh statistics.
func NewScanner(source LabelSource, retrier *Retrier, pacer *Pacer, logger *zap.Logger, sinks ...Sink) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pacer == nil {
		pacer = NewPacer(0, logger)
	}
	return &Scanner{
		source:  source,
		retrier: retrier,
		pacer:   pacer,
		sinks:   sinks,
		stats:   NewScanStatistics(),
		logger:  logger,
	}
}

// Stats exposes the live counters, e.g. for progress output.
func (s *Scanner) Stats() *ScanStatistics {
	return s.stats
}

// Run scans until the source is exhausted or ctx ends.
//
// It always returns the statistics gathered so far. err is nil on normal
// completion, wraps ctx's error on cancellation, and wraps ErrScanAborted if
// the loop itself failed. A query interrupted by cancellation is not
// recorded.
func (s *Scanner) Run(ctx context.Context) (snap Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan loop failed",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrScanAborted, r)
		}
		s.stats.Finish()
		snap = s.stats.Snapshot()
	}()

	s.logger.Info("scan started", zap.String("run_id", s.stats.RunID))
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return snap, s.interrupted(ctxErr)
		}
		if waitErr := s.pacer.Wait(ctx); waitErr != nil {
			return snap, s.interrupted(waitErr)
		}

		label, ok := s.source.Next()
		if !ok {
			s.logger.Info("scan finished",
				zap.String("run_id", s.stats.RunID),
				zap.Int64("queried", s.stats.Queried.Load()))
			return snap, nil
		}

		res := s.lookup(ctx, label)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return snap, s.interrupted(ctxErr)
		}

		s.stats.Record(res)
		metrics.GetMetrics().RecordQuery(res.Status.String())
		s.publish(res)

		if pauseErr := s.pacer.After(ctx, res.Status); pauseErr != nil {
			return snap, s.interrupted(pauseErr)
		}
	}
}

// lookup runs one retried query. A panic inside it becomes an UnknownError
// result for that label.
func (s *Scanner) lookup(ctx context.Context, label string) (res whois.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("lookup failed unexpectedly",
				zap.String("label", label),
				zap.Any("panic", r))
			res = whois.Result{
				Domain:      s.retrier.querier.FQDN(label),
				Status:      whois.UnknownError,
				Description: "unknown error (unexpected failure)",
				Raw:         fmt.Sprintf("unexpected failure: %v", r),
				Attempts:    1,
			}
		}
	}()
	return s.retrier.Lookup(ctx, label)
}

func (s *Scanner) publish(res whois.Result) {
	for _, sink := range s.sinks {
		if err := sink.Handle(res); err != nil {
			s.logger.Warn("result sink failed",
				zap.String("domain", res.Domain),
				zap.Error(err))
		}
	}
}

func (s *Scanner) interrupted(err error) error {
	s.logger.Info("scan interrupted",
		zap.String("run_id", s.stats.RunID),
		zap.Int64("queried", s.stats.Queried.Load()))
	return fmt.Errorf("scan interrupted: %w", err)
}
