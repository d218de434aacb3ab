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

import "strings"

// IsValidLabel applies the structural label rules:
//   - the label must not be empty
//   - it must not contain '.'
//   - with hyphens allowed, it must not start or end with '-'
//   - without hyphens allowed, it must not contain '-' at all
func IsValidLabel(label string, hyphenAllowed bool) bool {
	if label == "" {
		return false
	}
	if strings.Contains(label, ".") {
		return false
	}
	if !strings.Contains(label, Hyphen) {
		return true
	}
	if !hyphenAllowed {
		return false
	}
	return !strings.HasPrefix(label, Hyphen) && !strings.HasSuffix(label, Hyphen)
}

// containsOnly reports whether every rune of text appears in allowed.
func containsOnly(text string, allowed map[rune]struct{}) bool {
	for _, r := range text {
		if _, ok := allowed[r]; !ok {
			return false
		}
	}
	return true
}

func runeSet(alphabet string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(alphabet))
	for _, r := range alphabet {
		set[r] = struct{}{}
	}
	return set
}
