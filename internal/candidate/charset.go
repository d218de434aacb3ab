/*
Package candidate generates the domain labels that liscan queries.

A label is produced by one or more Sources (exhaustive enumeration, word lists,
repeat patterns). The Pipeline chains the enabled sources in a fixed order,
validates every candidate and removes duplicates across all sources, handing
labels out one at a time so that even astronomically large cartesian products
are never materialised.
*/
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
	"errors"
	"fmt"
	"strings"
)

// Base alphabets. Order matters: exhaustive enumeration follows it.
const (
	Letters = "abcdefghijklmnopqrstuvwxyz"
	Digits  = "0123456789"
	Alnum   = Letters + Digits
	Hyphen  = "-"
)

// Charset is a named selection of permitted label characters.
type Charset string

// The six supported charset selectors.
const (
	CharsetLetters       Charset = "letters"
	CharsetDigits        Charset = "digits"
	CharsetAlnum         Charset = "alnum"
	CharsetLettersHyphen Charset = "letters-hyphen"
	CharsetDigitsHyphen  Charset = "digits-hyphen"
	CharsetAlnumHyphen   Charset = "alnum-hyphen"
)

// Charsets lists every valid selector, in the order the CLI documents them.
var Charsets = []Charset{
	CharsetLetters,
	CharsetDigits,
	CharsetAlnum,
	CharsetLettersHyphen,
	CharsetDigitsHyphen,
	CharsetAlnumHyphen,
}

var alphabets = map[Charset]string{
	CharsetLetters:       Letters,
	CharsetDigits:        Digits,
	CharsetAlnum:         Alnum,
	CharsetLettersHyphen: Letters + Hyphen,
	CharsetDigitsHyphen:  Digits + Hyphen,
	CharsetAlnumHyphen:   Alnum + Hyphen,
}

// ErrConfig is matched by every *ConfigError via errors.Is.
var ErrConfig = errors.New("invalid configuration")

// ConfigError reports a configuration value the core cannot work with.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Resolve maps a charset selector to its alphabet. hyphenAllowed is true
// exactly when the alphabet contains '-'.
func Resolve(c Charset) (alphabet string, hyphenAllowed bool, err error) {
	alphabet, ok := alphabets[c]
	if !ok {
		return "", false, &ConfigError{Field: "charset", Value: string(c), Reason: "unknown charset selector"}
	}
	return alphabet, strings.Contains(alphabet, Hyphen), nil
}

// Valid reports whether c is one of the supported selectors.
func (c Charset) Valid() bool {
	_, ok := alphabets[c]
	return ok
}
