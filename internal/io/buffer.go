/*
Package io writes scan output to disk: a buffered line writer with background
flushing and the result sinks built on it.
*/
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
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBufferSize is the default buffer size for disk I/O
	DefaultBufferSize = 64 * 1024

	// FlushInterval is how often buffered writers flush automatically
	FlushInterval = 2 * time.Second
)

var (
	// ErrWriterClosed is returned when writing to a closed LineWriter
	ErrWriterClosed = errors.New("line writer closed")
)

// WriterMetrics holds counters for a LineWriter
type WriterMetrics struct {
	LinesWritten  atomic.Int64
	BytesWritten  atomic.Int64
	FlushCount    atomic.Int64
	ErrorCount    atomic.Int64
	LastFlushTime atomic.Int64 // Unix timestamp in nanoseconds
}

// WriterOptions configures a LineWriter
type WriterOptions struct {
	BufferSize int
	// FlushInterval enables the background flusher. Zero disables it.
	FlushInterval time.Duration
	// FlushEachLine pushes every line to the file and fsyncs it.
	FlushEachLine bool
	// Compressed wraps the file in a gzip stream.
	Compressed bool
	// Append keeps existing content instead of truncating.
	Append bool
}

// DefaultWriterOptions returns options for a bulk writer flushed in the
// background.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		BufferSize:    DefaultBufferSize,
		FlushInterval: FlushInterval,
	}
}

// SinkWriterOptions returns options for result files that must be on disk as
// soon as a line is written.
func SinkWriterOptions() *WriterOptions {
	return &WriterOptions{
		BufferSize:    4096,
		FlushEachLine: true,
	}
}

// LineWriter appends newline-terminated lines to a file. It is safe for
// concurrent use.
type LineWriter struct {
	path      string
	file      *os.File
	gzWriter  *gzip.Writer
	bufWriter *bufio.Writer
	opts      WriterOptions
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool

	stop    chan struct{}
	flusher sync.WaitGroup

	metrics WriterMetrics
}

// NewLineWriter creates the parent directory if needed and opens path.
func NewLineWriter(path string, options *WriterOptions, logger *zap.Logger) (*LineWriter, error) {
	if options == nil {
		options = DefaultWriterOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := *options
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if opts.Append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	w := &LineWriter{
		path:   path,
		file:   file,
		opts:   opts,
		logger: logger.With(zap.String("path", path)),
		stop:   make(chan struct{}),
	}
	if opts.Compressed {
		gzw, err := gzip.NewWriterLevel(file, gzip.BestSpeed)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		w.gzWriter = gzw
		w.bufWriter = bufio.NewWriterSize(gzw, opts.BufferSize)
	} else {
		w.bufWriter = bufio.NewWriterSize(file, opts.BufferSize)
	}

	if opts.FlushInterval > 0 && !opts.FlushEachLine {
		w.startBackgroundFlusher()
	}
	return w, nil
}

// startBackgroundFlusher periodically flushes until Close.
func (w *LineWriter) startBackgroundFlusher() {
	ticker := time.NewTicker(w.opts.FlushInterval)
	w.flusher.Add(1)

	go func() {
		defer w.flusher.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.Flush(); err != nil && !errors.Is(err, ErrWriterClosed) {
					w.logger.Warn("background flush failed", zap.Error(err))
				}
			case <-w.stop:
				return
			}
		}
	}()
}

// Path returns the file path.
func (w *LineWriter) Path() string {
	return w.path
}

// WriteLine writes line followed by '\n'.
func (w *LineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	n, err := w.bufWriter.WriteString(line)
	if err == nil {
		err = w.bufWriter.WriteByte('\n')
		n++
	}
	if err != nil {
		w.metrics.ErrorCount.Add(1)
		return fmt.Errorf("failed to write to %s: %w", w.path, err)
	}
	w.metrics.BytesWritten.Add(int64(n))
	w.metrics.LinesWritten.Add(1)

	if w.opts.FlushEachLine {
		return w.flushLocked()
	}
	return nil
}

// Flush pushes buffered lines to the file and syncs it.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	if w.bufWriter.Buffered() == 0 {
		return nil
	}
	return w.flushLocked()
}

func (w *LineWriter) flushLocked() error {
	if err := w.bufWriter.Flush(); err != nil {
		w.metrics.ErrorCount.Add(1)
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	if w.gzWriter != nil {
		if err := w.gzWriter.Flush(); err != nil {
			w.metrics.ErrorCount.Add(1)
			return fmt.Errorf("failed to flush gzip writer: %w", err)
		}
	}
	if err := w.file.Sync(); err != nil {
		w.metrics.ErrorCount.Add(1)
		return fmt.Errorf("failed to sync %s: %w", w.path, err)
	}
	w.metrics.FlushCount.Add(1)
	w.metrics.LastFlushTime.Store(time.Now().UnixNano())
	return nil
}

// Close stops the flusher, flushes and closes the file. Safe to call more
// than once.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	w.flusher.Wait()

	var errs []error
	if err := w.bufWriter.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush buffer on close: %w", err))
	}
	if w.gzWriter != nil {
		if err := w.gzWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gzip writer: %w", err))
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close file: %w", err))
	}
	return errors.Join(errs...)
}

// Lines returns how many lines were accepted.
func (w *LineWriter) Lines() int64 {
	return w.metrics.LinesWritten.Load()
}

// Flushes returns how many flushes reached the file.
func (w *LineWriter) Flushes() int64 {
	return w.metrics.FlushCount.Load()
}

// Errors returns how many write or flush errors occurred.
func (w *LineWriter) Errors() int64 {
	return w.metrics.ErrorCount.Load()
}
