// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import "time"

// Clock supplies the current time. Token issuance and verification read it.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns wall-clock time.
var SystemClock Clock = ClockFunc(time.Now)
