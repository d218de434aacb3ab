package metrics

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
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Candidate outcomes used as the "outcome" label of CandidatesTotal.
const (
	CandidateYielded   = "yielded"
	CandidateDuplicate = "duplicate"
	CandidateInvalid   = "invalid"
)

// Pause reasons used as the "reason" label of PauseSeconds.
const (
	PauseBase        = "base_delay"
	PauseRateLimited = "rate_limited"
	PauseServerError = "server_error"
	PauseRetry       = "retry"
	PauseThrottle    = "throttle"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     atomic.Bool
	metricsServer      *http.Server
)

// Metrics contains all the Prometheus metrics for a scan.
type Metrics struct {
	// Lookup queries
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	RetriesTotal  prometheus.Counter

	// Pacing
	PauseSeconds *prometheus.CounterVec

	// Candidate generation
	CandidatesTotal *prometheus.CounterVec
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection
func EnableMetrics() {
	metricsEnabled.Store(true)
}

// IsMetricsEnabled returns whether metrics collection is enabled
func IsMetricsEnabled() bool {
	return metricsEnabled.Load()
}

// Registry exposes the registry backing the /metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}

func newMetrics() *Metrics {
	buckets := []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	return &Metrics{
		QueriesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liscan_queries_total",
				Help: "Lookup queries by final status, after retries",
			},
			[]string{"status"},
		),
		QueryDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liscan_query_duration_seconds",
				Help:    "Time spent on a single lookup attempt",
				Buckets: buckets,
			},
			[]string{"status"},
		),
		RetriesTotal: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "liscan_query_retries_total",
				Help: "Lookup attempts repeated after a network failure",
			},
		),
		PauseSeconds: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liscan_pause_seconds_total",
				Help: "Seconds spent pausing between queries",
			},
			[]string{"reason"},
		),
		CandidatesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liscan_candidates_total",
				Help: "Candidates pulled from generation sources by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// StartMetricsServer starts an HTTP server exposing /metrics on addr.
func StartMetricsServer(addr string, logger *zap.Logger) error {
	if !IsMetricsEnabled() {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metricsInitialized.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("starting metrics server", zap.String("addr", addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	})
	return nil
}

// ShutdownMetricsServer gracefully shuts down the metrics server
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		return metricsServer.Shutdown(ctx)
	}
	return nil
}

// MeasureDuration returns a func that observes the elapsed time under status.
func MeasureDuration(histogram *prometheus.HistogramVec) func(status string) {
	if !IsMetricsEnabled() {
		return func(string) {}
	}
	start := time.Now()
	return func(status string) {
		histogram.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

// RecordQuery counts one classified lookup.
func (m *Metrics) RecordQuery(status string) {
	if !IsMetricsEnabled() {
		return
	}
	m.QueriesTotal.WithLabelValues(status).Inc()
}

// RecordRetry counts one repeated attempt.
func (m *Metrics) RecordRetry() {
	if !IsMetricsEnabled() {
		return
	}
	m.RetriesTotal.Inc()
}

// RecordPause adds d to the pause total for reason.
func (m *Metrics) RecordPause(reason string, d time.Duration) {
	if !IsMetricsEnabled() || d <= 0 {
		return
	}
	m.PauseSeconds.WithLabelValues(reason).Add(d.Seconds())
}

// RecordCandidate counts one candidate outcome.
func (m *Metrics) RecordCandidate(outcome string) {
	if !IsMetricsEnabled() {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome).Inc()
}
