// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"encoding/binary"
	"sync/atomic"
	"time"
	"unsafe"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"

	"code.hybscloud.com/mpipe/mclock"
	"code.hybscloud.com/mpipe/mlog"
	"code.hybscloud.com/mpipe/status"
)

// openReadySpinMax bounds the Open-side wait for a creator that mapped the
// object but has not finished constructing it yet.
const openReadySpinMax = 4096

// releaseDrainSpinMax bounds the Release-side wait for blocked peers to
// observe the exit flag.
const releaseDrainSpinMax = 1024

// FIFO is a handle onto a named shared-memory FIFO. Handles are obtained
// from Create (the owner) or Open (peers). A FIFO handle may be used from
// multiple goroutines concurrently.
type FIFO struct {
	_ noCopy

	hdr  *shmHeader
	mem  []byte // full segment mapping
	pool []byte // mem[headerSize:]

	mu  fmutex
	put fcond
	get fcond

	clk    *mclock.Clock
	owner  bool
	enq    EnqueueFunc
	deq    DequeueFunc
	opaque any
}

func newFIFO(mem []byte, owner bool) *FIFO {
	hdr := (*shmHeader)(unsafe.Pointer(unsafe.SliceData(mem)))
	return &FIFO{
		hdr:   hdr,
		mem:   mem,
		pool:  mem[headerSize:],
		mu:    fmutex{word: &hdr.mutexWord},
		put:   fcond{seq: &hdr.putSeq, waiters: &hdr.putWaiters},
		get:   fcond{seq: &hdr.getSeq, waiters: &hdr.getWaiters},
		owner: owner,
	}
}

// Create creates the named FIFO with a pool of poolSize bytes and maps it
// into the calling process. Creation fails if an object with the same name
// already exists. The returned handle owns the name: only Release unlinks
// it.
func Create(name string, poolSize int, flags uint32, log *mlog.Logger) (*FIFO, error) {
	if !checkName(name) {
		log.Errorf("invalid FIFO name; name has to be a single component of at most %d characters\n", NameMax)
		return nil, status.Error
	}
	if poolSize <= 0 {
		log.Errorf("FIFO pool size has to be greater than zero\n")
		return nil, status.Error
	}

	segSize := headerSize + poolSize
	fd, err := shmCreate(name, segSize)
	if err != nil {
		if err == unix.EEXIST {
			log.Errorf("trying to create an SHM-FIFO that already exists: '%s'\n", name)
		} else {
			log.Errorf("could not create SHM-FIFO '%s': %v\n", name, err)
		}
		return nil, status.Error
	}
	mem, err := unix.Mmap(fd, 0, segSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	// The descriptor is not kept: the mapping outlives it.
	_ = unix.Close(fd)
	if err != nil {
		log.Errorf("could not map SHM-FIFO '%s': %v\n", name, err)
		_ = shmUnlink(name)
		return nil, status.Error
	}

	f := newFIFO(mem, true)
	hdr := f.hdr
	copy(hdr.name[:NameMax], name)
	hdr.version = headerVersion
	atomic.StoreUint32(&hdr.flags, flags)
	hdr.poolSize = uint64(poolSize)
	mode := "off"
	if flags&ExhaustCtrl != 0 {
		mode = "on"
	}
	log.Debugf("exhaustive circular buffer checking mode %s on FIFO '%s'\n", mode, name)

	// The futex words start usable at zero; the init bits record
	// construction progress so teardown on partial failure destroys
	// exactly what was initialized.
	atomic.StoreUint32(&hdr.initFlags, initMutex|initPutSignal|initGetSignal)

	// Publish last: peers spinning in Open trust pool_size only once the
	// ready flag is set.
	atomic.StoreUint32(&hdr.ready, 1)

	log.Debugf("FIFO successfully created with pool size of %d bytes\n", poolSize)
	return f, nil
}

// Open maps the named FIFO created by a peer process. The segment is
// mapped in two stages: first the header alone to learn the pool size,
// then the full segment.
func Open(name string, log *mlog.Logger) (*FIFO, error) {
	if !checkName(name) {
		log.Errorf("invalid FIFO name\n")
		return nil, status.Error
	}
	fd, err := shmOpen(name)
	if err != nil {
		log.Errorf("could not open SHM-FIFO '%s': %v\n", name, err)
		return nil, status.Error
	}
	defer unix.Close(fd)

	hmem, err := unix.Mmap(fd, 0, headerSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		log.Errorf("could not map SHM-FIFO '%s' header: %v\n", name, err)
		return nil, status.Error
	}
	hdr := (*shmHeader)(unsafe.Pointer(unsafe.SliceData(hmem)))

	// The creator publishes the ready flag after sizing and constructing
	// the segment; spin with backoff until it shows up.
	var bo iox.Backoff
	ready := false
	for range openReadySpinMax {
		if atomic.LoadUint32(&hdr.ready) == 1 {
			ready = true
			break
		}
		bo.Wait()
	}
	poolSize := int(hdr.poolSize)
	_ = unix.Munmap(hmem)
	if !ready {
		log.Errorf("SHM-FIFO '%s' never became ready\n", name)
		return nil, status.Error
	}

	mem, err := unix.Mmap(fd, 0, headerSize+poolSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		log.Errorf("could not map SHM-FIFO '%s': %v\n", name, err)
		return nil, status.Error
	}
	return newFIFO(mem, false), nil
}

// Release tears the FIFO down: it raises the exit flag, unblocks every
// waiter, destroys the synchronization cells, unmaps the segment and
// unlinks the name. Release on a nil handle is a no-op. Only one process
// should release a given FIFO; a second release reports the unlink error
// and continues.
func (f *FIFO) Release(log *mlog.Logger) {
	if f == nil || f.hdr == nil {
		return
	}
	hdr := f.hdr
	name := hdr.nameString()
	inits := atomic.LoadUint32(&hdr.initFlags)
	if !f.owner {
		log.Warnf("releasing SHM-FIFO '%s' through a non-owner handle\n", name)
	}

	// Raise the exit flag and wake everything so blocked operations
	// re-evaluate their predicates and fail gracefully.
	atomic.StoreUint32(&hdr.exitFlag, 1)
	if inits&initMutex != 0 {
		f.mu.Lock()
		if inits&initPutSignal != 0 {
			f.put.Broadcast()
		}
		if inits&initGetSignal != 0 {
			f.get.Broadcast()
		}
		f.mu.Unlock()
	}

	// Give blocked peers a bounded chance to observe the exit flag before
	// the segment goes away.
	var bo iox.Backoff
	for range releaseDrainSpinMax {
		if f.put.Waiters() == 0 && f.get.Waiters() == 0 {
			break
		}
		f.put.Broadcast()
		f.get.Broadcast()
		bo.Wait()
	}

	// Destroy exactly what construction recorded.
	if inits&initPutSignal != 0 {
		f.put.Broadcast()
	}
	if inits&initGetSignal != 0 {
		f.get.Broadcast()
	}
	atomic.StoreUint32(&hdr.initFlags, 0)

	if err := unix.Munmap(f.mem); err != nil {
		log.Errorf("could not unmap SHM-FIFO '%s': %v\n", name, err)
	}
	// Only Release unlinks the name. A peer that raced us here gets an
	// unlink error; reported, not fatal.
	if err := shmUnlink(name); err != nil {
		log.Errorf("could not unlink SHM-FIFO '%s': %v\n", name, err)
	}
	f.hdr, f.mem, f.pool = nil, nil, nil
	log.Debugf("SHM-FIFO '%s' released\n", name)
}

// Close unmaps the segment from the calling process without destroying it.
// Close on a nil handle is a no-op.
func (f *FIFO) Close(log *mlog.Logger) {
	if f == nil || f.hdr == nil {
		return
	}
	name := f.hdr.nameString()
	if err := unix.Munmap(f.mem); err != nil {
		log.Errorf("could not unmap SHM-FIFO '%s': %v\n", name, err)
	}
	f.hdr, f.mem, f.pool = nil, nil, nil
}

// SetBlockingMode toggles the Nonblock flag and wakes both signals so any
// waiting peer re-evaluates its predicate.
func (f *FIFO) SetBlockingMode(block bool, log *mlog.Logger) {
	if f == nil || f.hdr == nil {
		return
	}
	f.mu.Lock()
	flags := atomic.LoadUint32(&f.hdr.flags)
	if block {
		flags &^= Nonblock
	} else {
		flags |= Nonblock
	}
	atomic.StoreUint32(&f.hdr.flags, flags)
	f.put.Broadcast()
	f.get.Broadcast()
	f.mu.Unlock()
}

// SetClock injects the monotonic clock used for Pull deadlines. A nil
// clock restores the system clock. Intended for tests.
func (f *FIFO) SetClock(clk *mclock.Clock) {
	if f == nil {
		return
	}
	f.clk = clk
}

func (f *FIFO) clock() *mclock.Clock {
	if f.clk != nil {
		return f.clk
	}
	return mclock.System()
}

// Push frames elem and writes it into the pool, splitting across the wrap
// point when necessary. On a full blocking FIFO it suspends until a peer
// pulls; on a full non-blocking FIFO it fails with status.NoMem. A framed
// element larger than the whole pool fails with status.Error.
func (f *FIFO) Push(elem []byte, log *mlog.Logger) error {
	if f == nil || f.hdr == nil || len(elem) == 0 {
		return status.Error
	}
	hdr := f.hdr
	poolSize := int(hdr.poolSize)
	framed := sizeFieldBytes + len(elem)
	if framed > poolSize {
		log.Errorf("input element size cannot exceed FIFO overall pool size (%d bytes)\n", poolSize)
		return status.Error
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Blocking FIFO: suspend until the framed element fits. The put
	// signal is broadcast first so a peer trying to give up re-checks.
	for int(hdr.bufLevel)+framed > poolSize &&
		atomic.LoadUint32(&hdr.flags)&Nonblock == 0 &&
		atomic.LoadUint32(&hdr.exitFlag) == 0 {
		log.Warnf("SHM-FIFO buffer '%s' overflow\n", hdr.nameString())
		f.put.Broadcast()
		f.get.Wait(f.mu)
	}
	if int(hdr.bufLevel)+framed > poolSize {
		if atomic.LoadUint32(&hdr.flags)&Nonblock != 0 {
			log.Warnf("SHM-FIFO buffer '%s' overflow\n", hdr.nameString())
			return status.NoMem
		}
		// Unblocked by the exit flag with the pool still full.
		return status.Interrupted
	}

	in := int(hdr.inputIdx)
	if in+framed <= poolSize {
		if atomic.LoadUint32(&hdr.flags)&ExhaustCtrl != 0 &&
			int64(binary.NativeEndian.Uint64(f.pool[in:])) != 0 {
			log.Errorf("stale frame bytes at write cursor of FIFO '%s'\n", hdr.nameString())
			return status.Error
		}
		binary.NativeEndian.PutUint64(f.pool[in:], uint64(len(elem)))
		copy(f.pool[in+sizeFieldBytes:], elem)
	} else {
		// The frame straddles the wrap point. Assemble it contiguously
		// so both fragments are bulk copies.
		staging := make([]byte, framed)
		binary.NativeEndian.PutUint64(staging, uint64(len(elem)))
		copy(staging[sizeFieldBytes:], elem)
		frag0 := poolSize - in
		copy(f.pool[in:], staging[:frag0])
		copy(f.pool, staging[frag0:])
	}

	hdr.slotsUsed++
	hdr.bufLevel += int64(framed)
	hdr.inputIdx = int64((in + framed) % poolSize)
	log.Debugf("pushed FIFO '%s'; buffer level: %d\n", hdr.nameString(), hdr.bufLevel)

	f.put.Broadcast()
	return nil
}

// Pull removes the oldest frame and returns it as a freshly allocated copy
// owned by the caller. On an empty blocking FIFO it suspends until a peer
// pushes, bounded by timeout when timeout is non-negative (status.TimedOut
// on expiry, measured on the monotonic clock). On an empty non-blocking
// FIFO it fails with status.Again. A negative timeout waits forever.
func (f *FIFO) Pull(timeout time.Duration, log *mlog.Logger) ([]byte, error) {
	if f == nil || f.hdr == nil {
		return nil, status.Error
	}
	hdr := f.hdr
	poolSize := int(hdr.poolSize)

	f.mu.Lock()
	defer f.mu.Unlock()

	// A non-negative timeout becomes an absolute monotonic deadline so
	// repeated waits do not stretch the budget.
	var deadline int64
	if timeout >= 0 {
		now := f.clock().MonotonicNanos(log)
		if now == 0 {
			return nil, status.Error
		}
		deadline = now + int64(timeout)
	}

	for hdr.bufLevel <= 0 &&
		atomic.LoadUint32(&hdr.flags)&Nonblock == 0 &&
		atomic.LoadUint32(&hdr.exitFlag) == 0 {
		log.Debugf("SHM-FIFO buffer '%s' underrun\n", hdr.nameString())
		f.get.Broadcast()
		if deadline != 0 {
			if f.put.TimedWait(f.mu, deadline-f.clock().MonotonicNanos(log)) {
				log.Warnf("FIFO pulling timed out on empty buffer\n")
				return nil, status.TimedOut
			}
		} else {
			f.put.Wait(f.mu)
		}
	}
	if hdr.bufLevel <= 0 {
		if atomic.LoadUint32(&hdr.flags)&Nonblock != 0 {
			log.Debugf("SHM-FIFO buffer '%s' underrun\n", hdr.nameString())
			return nil, status.Again
		}
		// Unblocked by the exit flag with the pool still empty.
		return nil, status.Interrupted
	}

	out := int(hdr.outputIdx)

	// The size field may itself straddle the wrap point; recover it byte
	// by byte in that case.
	var size int
	splitHeader := out+sizeFieldBytes > poolSize
	if splitHeader {
		var field [sizeFieldBytes]byte
		idx := out
		for i := range field {
			field[i] = f.pool[idx]
			idx = (idx + 1) % poolSize
		}
		size = int(int64(binary.NativeEndian.Uint64(field[:])))
	} else {
		size = int(int64(binary.NativeEndian.Uint64(f.pool[out:])))
	}
	if size <= 0 || sizeFieldBytes+size > poolSize {
		log.Errorf("corrupt frame size %d at read cursor of FIFO '%s'\n", size, hdr.nameString())
		return nil, status.Error
	}
	framed := sizeFieldBytes + size

	elem := make([]byte, size)
	if out+framed > poolSize {
		idx := (out + sizeFieldBytes) % poolSize
		for i := range elem {
			elem[i] = f.pool[idx]
			idx = (idx + 1) % poolSize
		}
	} else {
		copy(elem, f.pool[out+sizeFieldBytes:out+framed])
	}

	if atomic.LoadUint32(&hdr.flags)&ExhaustCtrl != 0 {
		// Flush the consumed frame so stale bytes are never observable.
		if out+framed <= poolSize {
			clear(f.pool[out : out+framed])
		} else {
			idx := out
			for range framed {
				f.pool[idx] = 0
				idx = (idx + 1) % poolSize
			}
		}
	}

	hdr.slotsUsed--
	hdr.bufLevel -= int64(framed)
	hdr.outputIdx = int64((out + framed) % poolSize)
	log.Debugf("pulled FIFO '%s'; new buffer level: %d\n", hdr.nameString(), hdr.bufLevel)

	f.get.Broadcast()
	return elem, nil
}

// BufferLevel returns the number of framed bytes currently occupying the
// pool, or -1 on a nil handle.
func (f *FIFO) BufferLevel(log *mlog.Logger) int64 {
	if f == nil || f.hdr == nil {
		return -1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hdr.bufLevel
}

// Empty discards every enqueued frame: the pool is zeroed, the counters
// and indices reset, and the get signal broadcast so blocked pushers
// re-check. There is nothing to pull afterwards, so the put signal is left
// alone.
func (f *FIFO) Empty(log *mlog.Logger) {
	if f == nil || f.hdr == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.pool)
	f.hdr.slotsUsed = 0
	f.hdr.bufLevel = 0
	f.hdr.inputIdx = 0
	f.hdr.outputIdx = 0
	f.get.Broadcast()
	log.Debugf("FIFO '%s' emptied\n", f.hdr.nameString())
}
