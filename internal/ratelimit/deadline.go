package ratelimit

import "time"

// A Deadline is a time instant when a rate limit expires. The zero value
// means no limit was ever recorded.
type Deadline time.Time

// After reports whether the deadline d is after other.
func (d Deadline) After(other Deadline) bool {
	return time.Time(d).After(time.Time(other))
}

// String implements fmt.Stringer.
func (d Deadline) String() string {
	return time.Time(d).String()
}
