// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shmfifo provides a named, cross-process FIFO of variable-size
// byte frames backed by a POSIX shared-memory segment.
//
// One process creates a FIFO by name; any number of peer processes open it
// and exchange frames through a single circular pool. Synchronization lives
// inside the shared segment itself — a futex-based process-shared mutex and
// two sequence-condition cells bound to the monotonic clock — so producers
// and consumers in different address spaces coordinate without any
// intermediate daemon.
//
// # Segment Layout
//
// The segment is [header][pool], contiguous. The header carries the FIFO
// name, the flag word, the exit flag, the pool size, the synchronization
// words (each padded to a cache line) and the ring-management counters. The
// layout is the only compatibility contract between peer processes; a
// compile-time assertion pins its size.
//
// # Frame Format
//
// Each frame occupies [size int64][payload] inside the pool, native byte
// order. The frame at the tail may wrap across the physical end of the pool
// byte by byte. A pulled frame is returned as a freshly allocated copy
// owned by the caller.
//
// # Blocking Model
//
// FIFOs are blocking by default. Push suspends while the pool cannot hold
// the framed element; Pull suspends while the pool is empty, optionally
// bounded by a deadline on the monotonic clock. With the Nonblock flag set,
// Push fails with status.NoMem on a full pool and Pull fails with
// status.Again on an empty one. Releasing the FIFO raises the shared exit
// flag, which unblocks every waiter in bounded time.
//
// # Requirements
//
// Linux only: the shared mutex and condition cells are built on the futex
// syscall (without FUTEX_PRIVATE_FLAG, so waits cross process boundaries).
// A 64-bit architecture is required by the pointer-width frame size field.
package shmfifo
