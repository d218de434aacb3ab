package util

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
	"strings"
	"time"
)

// maxFilenameLength keeps generated names well under common OS limits.
const maxFilenameLength = 100

// SanitizeFilename creates a filesystem-safe filename from an arbitrary string.
// Replaces path separators, shell-hostile characters and whitespace with
// underscores and limits length.
func SanitizeFilename(input string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t':
			return '_'
		}
		return r
	}, input)
	if len(replaced) > maxFilenameLength {
		// Cut on a rune boundary.
		cut := maxFilenameLength
		for cut > 0 && !isRuneStart(replaced[cut]) {
			cut--
		}
		return replaced[:cut]
	}
	return replaced
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// ReportFilename names a scan output file:
// liscan_<tld>_<length>_<charset>_<YYYYmmdd-HHMMSS><ext>.
func ReportFilename(tld string, length int, charset string, at time.Time, ext string) string {
	base := fmt.Sprintf("liscan_%s_%d_%s_%s",
		strings.TrimPrefix(tld, "."), length, charset, at.Format("20060102-150405"))
	return SanitizeFilename(base) + ext
}
