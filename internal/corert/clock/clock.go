// Package clock provides a monotonic nanosecond clock behind a small
// interface. The Scheduler measures its deadlines with System; the Actor
// yield budget and the Pool read time.Now directly.
package clock

import "time"

// Clock returns the current time as a monotonic nanosecond count. The zero
// value is not meaningful; use System() to obtain the process-wide clock.
type Clock interface {
	NowNs() int64
}

// systemClock is the production Clock backed by time.Now(). epoch is a
// fixed reference point captured at process start; NowNs reports elapsed
// time since epoch via time.Time.Sub, which operates on the monotonic
// reading Go attaches to time.Now() and so never regresses even across a
// backward wall-clock step (e.g. an NTP correction). UnixNano strips that
// reading and gives no such guarantee.
type systemClock struct {
	epoch time.Time
}

// NowNs implements Clock.
func (c systemClock) NowNs() int64 {
	return int64(time.Since(c.epoch))
}

// System is the process-wide monotonic clock used by default throughout the
// runtime.
var System Clock = systemClock{epoch: time.Now()}
