package testutil

import "time"

var timeNow = func() time.Time { return time.Now().UTC() }

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
