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
	"errors"
	"fmt"
	"net"
)

// ErrEmptyResponse is the Raw text of a Result whose response body was empty.
var ErrEmptyResponse = errors.New("received an empty response from the server")

// NetError is a socket-level failure (dial, DNS, refused, timeout, reset)
// while talking to the lookup server. It is always retryable.
type NetError struct {
	Op      string // "dial", "write" or "read"
	Addr    string
	Timeout bool
	Err     error
}

func (e *NetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

// IsRetryable marks socket failures as transient.
func (e *NetError) IsRetryable() bool {
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
