// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"math"
	"sync/atomic"

	"code.hybscloud.com/spin"
	"golang.org/x/sys/unix"
)

// Futex mutex states. mutexSleeping marks contention so that Unlock only
// issues the wake syscall when somebody may actually be sleeping.
const (
	mutexUnlocked uint32 = iota
	mutexLocked
	mutexSleeping
)

// activeSpin bounds the optimistic spin phase before falling back to the
// futex sleep.
const activeSpin = 4

// fmutex is a process-shared mutex over a futex word inside the mapped
// segment. The algorithm is the classic three-state futex mutex:
// speculative grab, short active spin, then sleep marked by the
// mutexSleeping state.
type fmutex struct {
	word *uint32
}

func (m fmutex) Lock() {
	if atomic.CompareAndSwapUint32(m.word, mutexUnlocked, mutexLocked) {
		return
	}
	for range activeSpin {
		if atomic.LoadUint32(m.word) == mutexUnlocked &&
			atomic.CompareAndSwapUint32(m.word, mutexUnlocked, mutexLocked) {
			return
		}
		spin.Yield()
	}
	for atomic.SwapUint32(m.word, mutexSleeping) != mutexUnlocked {
		_ = futexWait(m.word, mutexSleeping, nil)
	}
}

func (m fmutex) Unlock() {
	if atomic.SwapUint32(m.word, mutexUnlocked) == mutexSleeping {
		futexWake(m.word, 1)
	}
}

// fcond is a process-shared condition cell over a futex sequence word.
// Broadcast bumps the sequence and wakes every sleeper; waiters that raced
// past the sequence load simply fail the futex value check and re-run their
// predicate. Spurious wake-ups are allowed by contract.
type fcond struct {
	seq     *uint32
	waiters *uint32
}

// Broadcast wakes every waiter. Callers signal state transitions with the
// mutex held, which closes the window between predicate check and sleep.
func (c fcond) Broadcast() {
	atomic.AddUint32(c.seq, 1)
	futexWake(c.seq, math.MaxInt32)
}

// Wait atomically releases m and sleeps until a broadcast (or a spurious
// wake-up), then reacquires m.
func (c fcond) Wait(m fmutex) {
	seq := atomic.LoadUint32(c.seq)
	atomic.AddUint32(c.waiters, 1)
	m.Unlock()
	_ = futexWait(c.seq, seq, nil)
	atomic.AddUint32(c.waiters, ^uint32(0))
	m.Lock()
}

// TimedWait is Wait bounded by a relative timeout in nanoseconds. It
// reports whether the wait timed out. A non-positive timeout reports
// timeout immediately without releasing m.
func (c fcond) TimedWait(m fmutex, relNanos int64) (timedout bool) {
	if relNanos <= 0 {
		return true
	}
	seq := atomic.LoadUint32(c.seq)
	atomic.AddUint32(c.waiters, 1)
	m.Unlock()
	ts := unix.NsecToTimespec(relNanos)
	err := futexWait(c.seq, seq, &ts)
	atomic.AddUint32(c.waiters, ^uint32(0))
	m.Lock()
	return err == unix.ETIMEDOUT
}

// Waiters returns the number of peers currently blocked in Wait or
// TimedWait. Release uses it to drain blocked peers before tearing the
// segment down.
func (c fcond) Waiters() uint32 {
	return atomic.LoadUint32(c.waiters)
}
