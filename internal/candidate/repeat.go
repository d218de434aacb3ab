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
	"sync"
	"unicode"
)

// RepeatPredicate reports whether a candidate contains a run of identical
// consecutive ASCII letters or digits of at least the configured length.
type RepeatPredicate func(candidate string) bool

var (
	repeatPredicatesMu sync.Mutex
	repeatPredicates   = make(map[int]RepeatPredicate)
)

// RepeatRun returns the predicate for minRepeats, building it once per value.
// minRepeats < 2 accepts everything: a single character is not a repeat.
func RepeatRun(minRepeats int) RepeatPredicate {
	repeatPredicatesMu.Lock()
	defer repeatPredicatesMu.Unlock()

	if p, ok := repeatPredicates[minRepeats]; ok {
		return p
	}
	var p RepeatPredicate
	if minRepeats < 2 {
		p = func(string) bool { return true }
	} else {
		p = func(candidate string) bool { return hasRun(candidate, minRepeats) }
	}
	repeatPredicates[minRepeats] = p
	return p
}

// hasRun is a single linear scan keeping the length of the current run.
// Only [a-zA-Z0-9] take part; any other rune (e.g. '-') breaks the run.
func hasRun(s string, want int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if !isASCIIAlnum(r) {
			run = 0
			continue
		}
		r = unicode.ToLower(r)
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= want {
			return true
		}
	}
	return false
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// RepeatPattern is the exhaustive product filtered to candidates that contain
// a run of at least minRepeats identical characters.
type RepeatPattern struct {
	inner *Exhaustive
	match RepeatPredicate
}

// NewRepeatPattern creates a repeat-pattern source. It is empty when
// length <= 0 or minRepeats < 2.
func NewRepeatPattern(length int, alphabet string, minRepeats int) *RepeatPattern {
	if length <= 0 || minRepeats < 2 {
		return &RepeatPattern{inner: NewExhaustive(0, alphabet)}
	}
	return &RepeatPattern{
		inner: NewExhaustive(length, alphabet),
		match: RepeatRun(minRepeats),
	}
}

// Next implements Source.
func (r *RepeatPattern) Next() (string, bool) {
	for {
		s, ok := r.inner.Next()
		if !ok {
			return "", false
		}
		if r.match(s) {
			return s, true
		}
	}
}
