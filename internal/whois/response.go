package whois

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
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the classified outcome of a lookup.
type Status int

// Lookup outcomes. The zero value is UnknownError so that a Result nobody
// classified never reads as a success.
const (
	UnknownError Status = iota
	Available
	Unavailable
	InvalidQuery
	RateLimited
	ServerError
	NetworkError
)

// Numeric codes sent by the lookup server on the first response line.
const (
	CodeAvailable    = 1
	CodeUnavailable  = 0
	CodeInvalidQuery = -1
	CodeRateLimited  = -95
	CodeServerError  = -99
)

var statusNames = map[Status]string{
	UnknownError: "unknown_error",
	Available:    "available",
	Unavailable:  "unavailable",
	InvalidQuery: "invalid_query",
	RateLimited:  "rate_limited",
	ServerError:  "server_error",
	NetworkError: "network_error",
}

// String returns the snake_case name used in logs and metrics.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsError reports whether s counts as an error outcome in scan statistics.
// Rate limiting is tracked separately.
func (s Status) IsError() bool {
	switch s {
	case InvalidQuery, ServerError, NetworkError, UnknownError:
		return true
	}
	return false
}

// StatusForCode maps a server status code to a Status.
func StatusForCode(code int) Status {
	switch code {
	case CodeAvailable:
		return Available
	case CodeUnavailable:
		return Unavailable
	case CodeInvalidQuery:
		return InvalidQuery
	case CodeRateLimited:
		return RateLimited
	case CodeServerError:
		return ServerError
	}
	return UnknownError
}

// Result is the outcome of one lookup, after retries have been resolved.
type Result struct {
	Domain      string        // fully-qualified name that was queried
	Status      Status        // classified outcome
	Code        *int          // server status code, nil when none was parsed
	Raw         string        // trimmed response text, or the error description
	Description string        // human-readable status text
	Attempts    int           // attempts spent, including the first
	Duration    time.Duration // time spent on the final attempt
}

// HasCode reports whether a numeric code was parsed.
func (r Result) HasCode() bool {
	return r.Code != nil
}

// Preview returns the first line of Raw cut to n runes, followed by "..."
// when Raw as a whole is longer than n.
func (r Result) Preview(n int) string {
	line, _, _ := strings.Cut(r.Raw, "\n")
	if runes := []rune(line); len(runes) > n {
		line = string(runes[:n])
	}
	if utf8.RuneCountInString(r.Raw) > n {
		line += "..."
	}
	return line
}

// ParseResponse classifies a decoded, trimmed server response for domain.
//
// The first line must look like "<integer>: <text>". A missing colon or a
// non-integer prefix yields UnknownError; an empty response is a
// NetworkError. Neither is retryable.
func ParseResponse(domain, text string) Result {
	res := Result{Domain: domain, Raw: text}

	if text == "" {
		res.Status = NetworkError
		res.Description = "network error (empty response)"
		res.Raw = ErrEmptyResponse.Error()
		return res
	}

	first, _, _ := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	prefix, _, found := strings.Cut(first, ":")
	if !found {
		res.Status = UnknownError
		res.Description = "unknown error (no status code in response)"
		res.Raw += "\nerror: could not parse response code (no colon found)"
		return res
	}

	prefix = strings.TrimSpace(prefix)
	code, err := strconv.Atoi(prefix)
	if err != nil {
		res.Status = UnknownError
		res.Description = "unknown error (malformed status code)"
		res.Raw += fmt.Sprintf("\nerror: response code %q is not an integer", prefix)
		return res
	}

	res.Code = &code
	res.Status = StatusForCode(code)
	res.Description = describe(res.Status, code)
	return res
}

func describe(s Status, code int) string {
	switch s {
	case Available:
		return "available"
	case Unavailable:
		return "registered"
	case InvalidQuery:
		return "invalid query"
	case RateLimited:
		return "rate limited (retry later)"
	case ServerError:
		return "temporary server error (retry later)"
	}
	return fmt.Sprintf("unknown error (code: %d)", code)
}
