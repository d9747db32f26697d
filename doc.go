// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpipe provides the processor-interface contract of the media
// pipeline and the frame-transport glue binding processors to shared-memory
// FIFOs.
//
// A processor implementation registers one Descriptor per processor kind.
// The descriptor names the implementation and carries its entry points
// (open, close, put, get, process_frame, opt) together with two optional
// element-marshalling hooks that let a FIFO transport logical media frames
// instead of raw bytes.
//
// # Frame Transport
//
// The default hooks park frames in a FrameArena — a bounded slot table
// handing out numeric tickets — and send the 8-byte ticket through the
// FIFO. DefaultEnqueue duplicates the source frame before parking it, so
// the producer keeps ownership of its copy; DefaultDequeue redeems the
// ticket and hands the parked frame to the receiver, who owns it from then
// on. Tickets only resolve inside the process that parked the frame, which
// makes the default hooks the single-process fast path; peers in separate
// processes must marshal full frame bytes instead.
//
// # Sub-packages
//
//	status   the closed status-code taxonomy
//	mlog     the logging context threaded through every API
//	mclock   monotonic millisecond timestamps with a swappable clock
//	shmfifo  the shared-memory FIFO core
package mpipe
