/*
Package core drives a liscan run: the retry policy around single lookups,
inter-query pacing and penalties, the scan loop itself and its statistics.
*/
package core

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

import "errors"

// customError is an error type that includes a retryable flag.
type customError struct {
	message   string
	retryable bool
}

// NewError creates an error carrying a retryable flag.
//
// Parameters:
//
//	msg: The textual description of the error.
//	retryable: Whether the failed operation may succeed if attempted again.
func NewError(msg string, retryable bool) error {
	return &customError{
		message:   msg,
		retryable: retryable,
	}
}

// Error implements the standard Go `error` interface.
func (e *customError) Error() string {
	return e.message
}

// IsRetryable returns true if the error is designated as retryable.
func (e *customError) IsRetryable() bool {
	return e.retryable
}

// retryable is implemented by every error that knows whether it is transient,
// including whois.NetError.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable reports whether err, or any error it wraps, declares itself
// retryable. Errors that say nothing are treated as permanent.
//
// Parameters:
//
//	err: The error returned by a failed attempt. Nil is never retryable.
//
// Returns:
//
//	true if the attempt may succeed when repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

var (
	// ErrScanAborted is returned by Scanner.Run when the loop itself failed
	// unexpectedly. Statistics are still returned alongside it.
	ErrScanAborted = NewError("scan aborted", false)
)
