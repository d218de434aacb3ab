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

import "time"

const (
	// DefaultBaseDelay is the pause after every query.
	DefaultBaseDelay = time.Second

	// DefaultMaxRetries is how many extra attempts a network failure gets.
	DefaultMaxRetries = 2

	// RetryDelay is the fixed wait between attempts of one query.
	RetryDelay = time.Second

	// Penalties applied on top of the base delay when the server pushes back.
	// The factor multiplies the base delay; the floor is used when the base
	// delay is zero.
	RateLimitPenaltyFactor   = 5
	RateLimitPenaltyFloor    = 5 * time.Second
	ServerErrorPenaltyFactor = 2
	ServerErrorPenaltyFloor  = 2 * time.Second
)
