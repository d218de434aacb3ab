package io

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
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/x-stp/liscan/internal/whois"
)

// TimestampLayout prefixes live-log lines.
const TimestampLayout = "2006-01-02 15:04:05"

// OpenSinkFile opens path for a result sink, flushing every line.
func OpenSinkFile(path string, logger *zap.Logger) (*LineWriter, error) {
	return NewLineWriter(path, SinkWriterOptions(), logger)
}

// FoundSink records available domains, one fully-qualified name per line.
type FoundSink struct {
	w *LineWriter
}

// NewFoundSink writes through w.
func NewFoundSink(w *LineWriter) *FoundSink {
	return &FoundSink{w: w}
}

// Handle writes res.Domain when it is available and ignores everything else.
func (s *FoundSink) Handle(res whois.Result) error {
	if res.Status != whois.Available {
		return nil
	}
	return s.w.WriteLine(res.Domain)
}

// Close closes the underlying writer.
func (s *FoundSink) Close() error {
	return s.w.Close()
}

// LiveLog records available domains with the local time they were found:
// "[2006-01-02 15:04:05] example.li".
type LiveLog struct {
	w   *LineWriter
	now func() time.Time
}

// NewLiveLog writes through w.
func NewLiveLog(w *LineWriter) *LiveLog {
	return &LiveLog{w: w, now: time.Now}
}

// Handle implements the scan sink contract.
func (l *LiveLog) Handle(res whois.Result) error {
	if res.Status != whois.Available {
		return nil
	}
	return l.w.WriteLine(fmt.Sprintf("[%s] %s", l.now().Format(TimestampLayout), res.Domain))
}

// Close closes the underlying writer.
func (l *LiveLog) Close() error {
	return l.w.Close()
}
