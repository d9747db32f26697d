// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"fmt"
	"unsafe"

	"code.hybscloud.com/mpipe/internal"
)

// Flag bits of the shared flag word. Future flags must preserve these
// positions.
const (
	// Nonblock makes Push and Pull fail instead of suspending. FIFOs are
	// blocking by default.
	Nonblock uint32 = 1 << 0

	// ExhaustCtrl zeroes frame bytes on Pull so stale data is never
	// observable after consumption, and lets Push verify that the write
	// cursor points at zeroed pool bytes.
	ExhaustCtrl uint32 = 1 << 1
)

// NameMax is the maximum length of a FIFO name, matching the OS limit for
// shared-memory object names.
const NameMax = 255

const (
	headerVersion = 1

	// sizeFieldBytes is the width of the frame size field: the platform's
	// pointer-width signed integer.
	sizeFieldBytes = int(unsafe.Sizeof(int64(0)))

	nameBufLen = NameMax + 1
)

// Construction-progress bits recorded in the header so that teardown on
// partial construction destroys exactly what was initialized.
const (
	initMutex     uint32 = 1 << 0
	initPutSignal uint32 = 1 << 1
	initGetSignal uint32 = 1 << 2
)

// shmHeader is resident at offset 0 of the shared segment. Padding is
// explicit: the scalar block ends on an 8-byte boundary and each futex cell
// sits alone on a cache line. Any change here changes the cross-process
// compatibility contract.
type shmHeader struct {
	name      [nameBufLen]byte // NUL-terminated FIFO name
	version   uint32
	flags     uint32 // read unlocked as a hint, decisions re-checked under the mutex
	exitFlag  uint32 // non-zero: unblock all operations and fail gracefully
	initFlags uint32
	ready     uint32 // stored last during creation; Open spins on it
	_         [4]byte
	poolSize  uint64
	slotsUsed int64 // frames currently enqueued
	bufLevel  int64 // framed bytes currently occupied
	inputIdx  int64 // pool offset of the next write
	outputIdx int64 // pool offset of the next read
	_         [scalarPad]byte

	mutexWord uint32 // futex mutex guarding the header and the pool
	_         [internal.CacheLineSize - 4]byte

	putSeq     uint32 // signalled after each successful push
	putWaiters uint32
	_          [internal.CacheLineSize - 8]byte

	getSeq     uint32 // signalled after each successful pull
	getWaiters uint32
	_          [internal.CacheLineSize - 8]byte
}

const (
	scalarBytes = nameBufLen + 5*4 + 4 + 5*8
	scalarPad   = (internal.CacheLineSize - scalarBytes%internal.CacheLineSize) %
		internal.CacheLineSize

	headerSize = scalarBytes + scalarPad + 3*internal.CacheLineSize
)

func init() {
	if unsafe.Sizeof(shmHeader{}) != headerSize {
		panic(fmt.Sprintf("shmHeader size is %d, expected %d",
			unsafe.Sizeof(shmHeader{}), headerSize))
	}
}

// nameString returns the NUL-terminated name stored in the header.
func (h *shmHeader) nameString() string {
	for i := range h.name {
		if h.name[i] == 0 {
			return string(h.name[:i])
		}
	}
	return string(h.name[:])
}
