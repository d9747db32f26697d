// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpipe

import (
	"math"
	"sync/atomic"

	"code.hybscloud.com/spin"

	"code.hybscloud.com/mpipe/status"
)

// FrameArena is a bounded lock-free slot table that parks frames and hands
// out numeric tickets in exchange. The default FIFO hooks send tickets
// through the pool instead of raw pointers, so a frame reference can only
// be redeemed by the process (and arena) that parked it.
//
// The free-slot queue underneath is a turn-stamped MPMC circular queue;
// slots hold the parked frames and are recycled on redeem. All operations
// are safe for concurrent use.
type FrameArena struct {
	_ noCopy

	frames     []*Frame
	capacity   uint32
	mask       uint32
	entries    []atomic.Uint64
	head, tail atomic.Uint32
}

const (
	arenaEntryEmpty    = 1 << 62
	arenaEntryTurnMask = arenaEntryEmpty>>32 - 1
)

func arenaEmpty(turn uint32) uint64 {
	return arenaEntryEmpty | uint64(turn&arenaEntryTurnMask)
}

// NewFrameArena creates an arena with at least the given capacity, rounded
// up to the next power of two. The capacity must be between 1 and
// 1<<31, the largest power of two a uint32 holds.
func NewFrameArena(capacity int) *FrameArena {
	if capacity < 1 || capacity > math.MaxUint32/2+1 {
		panic("capacity must be between 1 and 1<<31")
	}
	capacity--
	capacity |= capacity >> 1
	capacity |= capacity >> 2
	capacity |= capacity >> 4
	capacity |= capacity >> 8
	capacity |= capacity >> 16
	capacity++

	a := &FrameArena{
		frames:   make([]*Frame, capacity),
		capacity: uint32(capacity),
		mask:     uint32(capacity - 1),
		entries:  make([]atomic.Uint64, capacity),
	}
	for i := range a.entries {
		a.entries[i].Store(uint64(i))
	}
	a.tail.Store(a.capacity)
	return a
}

// Cap returns the arena capacity.
func (a *FrameArena) Cap() int {
	return int(a.capacity)
}

// Park stores the frame and returns the ticket redeeming it. Returns
// status.NoMem when every slot is occupied; parking never blocks.
func (a *FrameArena) Park(f *Frame) (ticket uint64, err error) {
	if f == nil {
		return 0, status.InvalidArg
	}
	slot, err := a.tryGet()
	if err != nil {
		return 0, err
	}
	a.frames[slot] = f
	return slot, nil
}

// Redeem exchanges a ticket for the parked frame and recycles the slot.
// The caller owns the returned frame. A ticket that is out of range, or
// was already redeemed, fails with status.InvalidArg or status.NotFound.
func (a *FrameArena) Redeem(ticket uint64) (*Frame, error) {
	if ticket >= uint64(a.capacity) {
		return nil, status.InvalidArg
	}
	f := a.frames[ticket]
	if f == nil {
		return nil, status.NotFound
	}
	a.frames[ticket] = nil
	if err := a.tryPut(ticket); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *FrameArena) tryGet() (slot uint64, err error) {
	sw := spin.Wait{}
	for {
		h, t := a.head.Load(), a.tail.Load()
		e := a.entries[h&a.mask].Load()

		if h != a.head.Load() {
			sw.Once()
			continue
		}
		if h == t {
			return 0, status.NoMem
		}
		nextTurn := (h/a.capacity + 1) & arenaEntryTurnMask
		if e == arenaEmpty(nextTurn) {
			a.head.CompareAndSwap(h, h+1)
			sw.Once()
			continue
		}
		ok := a.entries[h&a.mask].CompareAndSwap(e, arenaEmpty(nextTurn))
		a.head.CompareAndSwap(h, h+1)
		if ok {
			return e & uint64(a.mask), nil
		}
		sw.Once()
	}
}

func (a *FrameArena) tryPut(slot uint64) error {
	sw := spin.Wait{}
	for {
		h, t := a.head.Load(), a.tail.Load()
		if t != a.tail.Load() {
			sw.Once()
			continue
		}
		if t == h+a.capacity {
			return status.Error
		}
		turn := (t / a.capacity) & arenaEntryTurnMask
		ok := a.entries[t&a.mask].CompareAndSwap(arenaEmpty(turn), slot)
		a.tail.CompareAndSwap(t, t+1)
		if ok {
			return nil
		}
		sw.Once()
	}
}
