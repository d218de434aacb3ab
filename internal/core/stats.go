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
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/x-stp/liscan/internal/whois"
)

// ScanStatistics tracks counters for one run. Counters are atomic so a
// progress reporter may read them while the loop runs.
type ScanStatistics struct {
	RunID     string
	StartTime time.Time

	Queried     atomic.Int64
	Available   atomic.Int64
	Unavailable atomic.Int64
	RateLimited atomic.Int64
	Errored     atomic.Int64
	Retries     atomic.Int64

	endNanos atomic.Int64
}

// NewScanStatistics starts the clock for a new run.
func NewScanStatistics() *ScanStatistics {
	return &ScanStatistics{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
}

// Record accounts for one final Result.
func (s *ScanStatistics) Record(res whois.Result) {
	s.Queried.Add(1)
	if res.Attempts > 1 {
		s.Retries.Add(int64(res.Attempts - 1))
	}
	switch {
	case res.Status == whois.Available:
		s.Available.Add(1)
	case res.Status == whois.Unavailable:
		s.Unavailable.Add(1)
	case res.Status == whois.RateLimited:
		s.RateLimited.Add(1)
	case res.Status.IsError():
		s.Errored.Add(1)
	}
}

// Finish freezes the elapsed time. Later calls are no-ops.
func (s *ScanStatistics) Finish() {
	s.endNanos.CompareAndSwap(0, time.Now().UnixNano())
}

// Elapsed returns the run duration so far, or up to Finish.
func (s *ScanStatistics) Elapsed() time.Duration {
	if end := s.endNanos.Load(); end != 0 {
		return time.Unix(0, end).Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Snapshot copies the current counters.
func (s *ScanStatistics) Snapshot() Snapshot {
	return Snapshot{
		RunID:       s.RunID,
		StartTime:   s.StartTime,
		Queried:     s.Queried.Load(),
		Available:   s.Available.Load(),
		Unavailable: s.Unavailable.Load(),
		RateLimited: s.RateLimited.Load(),
		Errored:     s.Errored.Load(),
		Retries:     s.Retries.Load(),
		Elapsed:     s.Elapsed(),
	}
}

// Snapshot is a point-in-time copy of ScanStatistics.
type Snapshot struct {
	RunID       string
	StartTime   time.Time
	Queried     int64
	Available   int64
	Unavailable int64
	RateLimited int64
	Errored     int64
	Retries     int64
	Elapsed     time.Duration
}

// minRateWindow is the shortest elapsed time for which a rate is reported.
const minRateWindow = 10 * time.Millisecond

// Rate returns queries per second, and false when too little time has passed
// to say.
func (s Snapshot) Rate() (float64, bool) {
	if s.Elapsed <= minRateWindow {
		return 0, false
	}
	return float64(s.Queried) / s.Elapsed.Seconds(), true
}

// SuccessRate is the percentage of queries that got a definite answer, i.e.
// neither rate limited nor errored. Zero queries yield 0.
func (s Snapshot) SuccessRate() float64 {
	if s.Queried == 0 {
		return 0
	}
	ok := s.Queried - s.Errored - s.RateLimited
	return float64(ok) / float64(s.Queried) * 100
}
