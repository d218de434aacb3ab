package io

import (
	"compress/gzip"
	stdio "io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWriterBuffersUntilFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := NewLineWriter(path, &WriterOptions{BufferSize: 1024}, nil)
	require.NoError(t, err)

	require.NoError(t, w.WriteLine("abc.li"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, w.Flush())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.li\n", string(data))

	require.NoError(t, w.Close())
	assert.EqualValues(t, 1, w.Lines())
	assert.EqualValues(t, 1, w.Flushes())
}

func TestLineWriterFlushEachLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")
	w, err := NewLineWriter(path, SinkWriterOptions(), nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteLine("a.li"))
	require.NoError(t, w.WriteLine("b.li"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.li\nb.li\n", string(data))
	assert.EqualValues(t, 2, w.Flushes())
}

func TestLineWriterBackgroundFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := NewLineWriter(path, &WriterOptions{FlushInterval: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteLine("later.li"))
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == "later.li\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLineWriterTruncateAndAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := NewLineWriter(path, &WriterOptions{Append: true}, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("new"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))

	w, err = NewLineWriter(path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("fresh"))
	require.NoError(t, w.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(data))
}

func TestLineWriterCompressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt.gz")
	w, err := NewLineWriter(path, &WriterOptions{Compressed: true}, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteLine("aa"))
	require.NoError(t, w.WriteLine("ab"))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := stdio.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "aa\nab\n", string(data))
}

func TestLineWriterClosed(t *testing.T) {
	t.Parallel()

	w, err := NewLineWriter(filepath.Join(t.TempDir(), "out.txt"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.WriteLine("x"), ErrWriterClosed)
	assert.ErrorIs(t, w.Flush(), ErrWriterClosed)
}

func TestLineWriterConcurrentWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := NewLineWriter(path, &WriterOptions{BufferSize: 64, FlushInterval: time.Millisecond}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = w.WriteLine("line")
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, 800*len("line\n"))
	assert.EqualValues(t, 800, w.Lines())
}

func TestNewLineWriterBadPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewLineWriter(dir, nil, nil)
	assert.Error(t, err)
}

func TestLineWriterCountsErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := NewLineWriter(path, SinkWriterOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	require.NoError(t, w.WriteLine("a.li"))
	assert.Zero(t, w.Errors())

	// Pull the file out from under the writer so the next flush fails.
	require.NoError(t, w.file.Close())
	assert.Error(t, w.WriteLine("b.li"))
	assert.EqualValues(t, 1, w.Errors())

	_ = w.Close()
}
