// Package timesync is the time authority for the clock face.  It keeps a
// settable wall-clock time (the board's RTC equivalent) and watches the
// local chronyd to know whether that time is actually trustworthy.
package timesync

import (
	"sync"
	"time"
)

// RTC tracks the time of day shown on the clock.  It is the system clock
// plus a manual adjustment, so "setting the time" never touches the OS.
type RTC struct {
	mu        sync.Mutex
	skew      time.Duration // manual adjustment relative to the system clock
	utcOffset int           // whole hours added to the displayed hour

	synchronized bool
	lastSync     time.Time
}

// NewRTC returns a time authority that follows the system clock.
func NewRTC() *RTC {
	return &RTC{}
}

// Now returns the current time including any manual adjustment.
func (r *RTC) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Now().Add(r.skew)
}

// Clock returns the time of day for the display.  The UTC offset is
// applied to the hour with the original firmware's wrap: below zero adds
// 24, above 23 subtracts 24.
func (r *RTC) Clock() (hours, minutes, seconds int) {
	r.mu.Lock()
	skew, utcOffset := r.skew, r.utcOffset
	r.mu.Unlock()

	h, m, s := time.Now().Add(skew).Clock()
	h += utcOffset
	if h < 0 {
		h += 24
	} else if h > 23 {
		h -= 24
	}
	return h, m, s
}

// Set forces the time of day to h:m:s, clearing any UTC offset.  This is
// the manual path for a board with no network.
func (r *RTC) Set(hours, minutes, seconds int) {
	now := time.Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, seconds, 0, now.Location())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.skew = target.Sub(now)
	r.utcOffset = 0
}

// SetUTCOffset shifts the displayed hour by a whole number of hours,
// for boards whose system clock runs on UTC.
func (r *RTC) SetUTCOffset(hours int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utcOffset = hours
}

// Synchronized reports whether chronyd said, within the last watch
// interval or two, that the clock is steered by a network time source.
func (r *RTC) Synchronized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synchronized
}

func (r *RTC) setSynchronized(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synchronized = ok
	if ok {
		r.lastSync = time.Now()
	}
}
