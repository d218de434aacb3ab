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

import "iter"

// Source is a lazy, finite, pull-based producer of candidate strings.
// Next returns the next candidate, or ok=false once the source is exhausted.
// A fresh instance restarts the sequence; sources never share iteration state.
//
// Sources holding resources (open files) additionally implement io.Closer;
// the Pipeline closes them when they are exhausted or when it is closed.
type Source interface {
	Next() (candidate string, ok bool)
}

// All adapts a Source to a range-over-func sequence.
func All(src Source) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			s, ok := src.Next()
			if !ok || !yield(s) {
				return
			}
		}
	}
}

// Exhaustive enumerates every string of a fixed length over an alphabet, as the
// cartesian product ordered by alphabet index (an odometer whose rightmost
// digit turns fastest). |alphabet|^length candidates are produced; no cap is
// imposed, choosing a tractable length is the caller's job.
type Exhaustive struct {
	alphabet []rune
	idx      []int
	buf      []rune
	done     bool
}

// NewExhaustive creates an exhaustive source. length <= 0 or an empty
// alphabet yields nothing.
func NewExhaustive(length int, alphabet string) *Exhaustive {
	e := &Exhaustive{alphabet: []rune(alphabet)}
	if length <= 0 || len(e.alphabet) == 0 {
		e.done = true
		return e
	}
	e.idx = make([]int, length)
	e.buf = make([]rune, length)
	return e
}

// Next implements Source.
func (e *Exhaustive) Next() (string, bool) {
	if e.done {
		return "", false
	}
	for i, j := range e.idx {
		e.buf[i] = e.alphabet[j]
	}
	out := string(e.buf)

	// Advance the odometer; carrying out of position 0 ends the sequence.
	pos := len(e.idx) - 1
	for pos >= 0 {
		e.idx[pos]++
		if e.idx[pos] < len(e.alphabet) {
			break
		}
		e.idx[pos] = 0
		pos--
	}
	if pos < 0 {
		e.done = true
	}
	return out, true
}

// Cardinality returns |alphabet|^length, saturating at the maximum uint64.
// Used for the pre-scan warning about exponential growth.
func Cardinality(length, alphabetSize int) uint64 {
	if length <= 0 || alphabetSize <= 0 {
		return 0
	}
	const limit = ^uint64(0)
	n := uint64(1)
	for i := 0; i < length; i++ {
		if n > limit/uint64(alphabetSize) {
			return limit
		}
		n *= uint64(alphabetSize)
	}
	return n
}

// SliceSource serves a fixed list of candidates. Handy for explicit labels
// passed on the command line.
type SliceSource struct {
	items []string
	pos   int
}

// NewSliceSource returns a Source over items, in order.
func NewSliceSource(items ...string) *SliceSource {
	return &SliceSource{items: items}
}

// Next implements Source.
func (s *SliceSource) Next() (string, bool) {
	if s.pos >= len(s.items) {
		return "", false
	}
	s.pos++
	return s.items[s.pos-1], true
}
