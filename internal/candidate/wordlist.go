package candidate

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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	// sniffSize is how much of a word list is inspected to pick a decoder.
	sniffSize = 4096
	// maxWordLine bounds a single line; longer lines fail the pass.
	maxWordLine = 1024 * 1024
)

// WordList yields words from a dictionary file (one per line) that are exactly
// length characters long and made only of alphabet characters. Lines are
// trimmed and lower-cased; each qualifying word is yielded once per pass, the
// first occurrence wins.
//
// The file is opened on the first call to Next. A missing or unreadable file
// does not fail anything: the source logs a warning and behaves as empty.
// Files that are not valid UTF-8 are decoded as GBK, the usual encoding of
// pinyin dictionaries exported on Chinese systems.
type WordList struct {
	path    string
	length  int
	allowed map[rune]struct{}
	logger  *zap.Logger

	opened  bool
	done    bool
	file    *os.File
	scanner *bufio.Scanner
	seen    map[string]struct{}
	err     error
}

// NewWordList creates a word-list source. Nothing is read until Next.
func NewWordList(path string, length int, alphabet string, logger *zap.Logger) *WordList {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordList{
		path:    path,
		length:  length,
		allowed: runeSet(alphabet),
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// Next implements Source.
func (w *WordList) Next() (string, bool) {
	if w.done {
		return "", false
	}
	if !w.opened {
		w.opened = true
		if err := w.open(); err != nil {
			w.fail(err)
			return "", false
		}
	}

	for w.scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(w.scanner.Text()))
		if utf8.RuneCountInString(word) != w.length {
			continue
		}
		if _, dup := w.seen[word]; dup {
			continue
		}
		if !containsOnly(word, w.allowed) {
			continue
		}
		w.seen[word] = struct{}{}
		return word, true
	}

	if err := w.scanner.Err(); err != nil {
		w.fail(fmt.Errorf("reading word list %s: %w", w.path, err))
		return "", false
	}
	w.Close()
	return "", false
}

// Err returns the diagnostic that emptied or cut short this source, if any.
func (w *WordList) Err() error {
	return w.err
}

// Close releases the underlying file. Safe to call more than once.
func (w *WordList) Close() error {
	w.done = true
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *WordList) open() error {
	f, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("word list %s not found: %w", w.path, err)
		}
		return fmt.Errorf("opening word list %s: %w", w.path, err)
	}
	w.file = f

	br := bufio.NewReaderSize(f, 64*1024)
	peek, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("reading word list %s: %w", w.path, err)
	}

	var r io.Reader = br
	if !looksUTF8(peek) {
		w.logger.Debug("word list is not UTF-8, decoding as GBK", zap.String("path", w.path))
		r = transform.NewReader(br, simplifiedchinese.GBK.NewDecoder())
	}

	w.scanner = bufio.NewScanner(r)
	w.scanner.Buffer(make([]byte, 0, 64*1024), maxWordLine)
	return nil
}

func (w *WordList) fail(err error) {
	w.err = err
	w.logger.Warn("skipping word list source", zap.String("path", w.path), zap.Error(err))
	w.Close()
}

// looksUTF8 tolerates a multi-byte rune cut in half at the end of the window.
func looksUTF8(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
