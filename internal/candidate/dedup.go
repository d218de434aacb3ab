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

import "github.com/zeebo/xxh3"

// labelSet is the run-wide dedup set. Labels are bucketed by their xxh3 hash;
// a bucket almost always holds one label, and colliding labels are compared
// by value so a collision never drops a distinct label.
type labelSet struct {
	buckets map[uint64][]string
	size    int
}

func newLabelSet() *labelSet {
	return &labelSet{buckets: make(map[uint64][]string)}
}

// Add inserts label and reports whether it was not already present.
func (s *labelSet) Add(label string) bool {
	h := xxh3.HashString(label)
	bucket := s.buckets[h]
	for _, existing := range bucket {
		if existing == label {
			return false
		}
	}
	s.buckets[h] = append(bucket, label)
	s.size++
	return true
}

// Len returns the number of distinct labels added.
func (s *labelSet) Len() int {
	return s.size
}
