// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

// Package mclock provides 64-bit millisecond timestamps from the monotonic
// clock.
//
// A Clock wraps an indirectly called gettime function so tests can inject
// clock failures without touching process-global state. The package-default
// clock reads the system monotonic clock via golang.org/x/sys/unix.
package mclock

import (
	"golang.org/x/sys/unix"

	"code.hybscloud.com/mpipe/mlog"
)

// GettimeFunc reads the clock identified by clockid into ts. It has the
// shape of unix.ClockGettime so the system clock is the zero-configuration
// default.
type GettimeFunc func(clockid int32, ts *unix.Timespec) error

// Clock converts monotonic clock readings into millisecond timestamps.
// The zero value is not usable; obtain instances from New or System.
type Clock struct {
	gettime GettimeFunc
}

// New creates a Clock backed by the given gettime function. A nil function
// selects the system clock.
func New(gettime GettimeFunc) *Clock {
	if gettime == nil {
		gettime = unix.ClockGettime
	}
	return &Clock{gettime: gettime}
}

var system = New(nil)

// System returns the shared Clock backed by the system monotonic clock.
func System() *Clock {
	return system
}

// CoarseMillis returns the CLOCK_MONOTONIC_COARSE time in milliseconds, or
// 0 if the clock read fails.
func (c *Clock) CoarseMillis(log *mlog.Logger) uint64 {
	return c.millis(unix.CLOCK_MONOTONIC_COARSE, log)
}

// MonotonicMillis returns the CLOCK_MONOTONIC time in milliseconds, or 0 if
// the clock read fails.
func (c *Clock) MonotonicMillis(log *mlog.Logger) uint64 {
	return c.millis(unix.CLOCK_MONOTONIC, log)
}

// MonotonicNanos returns the CLOCK_MONOTONIC time in nanoseconds, or 0 if
// the clock read fails. It is the time base for absolute deadlines computed
// from Pull timeouts.
func (c *Clock) MonotonicNanos(log *mlog.Logger) int64 {
	var ts unix.Timespec
	if err := c.gettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		log.Errorf("monotonic clock read failed: %v\n", err)
		return 0
	}
	return ts.Nano()
}

func (c *Clock) millis(clockid int32, log *mlog.Logger) uint64 {
	var ts unix.Timespec
	if err := c.gettime(clockid, &ts); err != nil {
		log.Errorf("clock %d read failed: %v\n", clockid, err)
		return 0
	}
	return uint64(ts.Sec)*1000 + uint64(ts.Nsec)/1000000
}
