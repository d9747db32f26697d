// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Classic futex(2) operation codes. golang.org/x/sys/unix does not export
// these (it only exposes the newer futex_wait/futex_wake syscall numbers),
// so they are defined here with their fixed Linux ABI values.
const (
	futexOpWait = 0
	futexOpWake = 1
)

// futexWait sleeps on addr while *addr == val, for at most the relative
// timeout ts (nil means forever). FUTEX_PRIVATE_FLAG is deliberately not
// set: the words live in a MAP_SHARED segment and waits must cross process
// boundaries. The relative timeout of FUTEX_WAIT is measured on
// CLOCK_MONOTONIC, the same time base used for deadlines.
//
// Returns unix.ETIMEDOUT on timeout expiry. unix.EAGAIN (value changed
// before sleeping) and unix.EINTR surface as nil: both are re-check events
// for the caller's predicate loop.
func futexWait(addr *uint32, val uint32, ts *unix.Timespec) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), uintptr(futexOpWait),
		uintptr(val), uintptr(unsafe.Pointer(ts)), 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	}
	return errno
}

// futexWake wakes at most n waiters sleeping on addr.
func futexWake(addr *uint32, n uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), uintptr(futexOpWake),
		uintptr(n), 0, 0, 0)
}
