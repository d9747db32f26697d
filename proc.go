// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package mpipe

import (
	"encoding/binary"
	"reflect"

	"code.hybscloud.com/mpipe/mlog"
	"code.hybscloud.com/mpipe/shmfifo"
	"code.hybscloud.com/mpipe/status"
)

// Instance is an opaque processor instance handle produced by a
// descriptor's Open entry point and consumed by the other entry points.
type Instance any

type (
	// OpenFunc instantiates a specific processor. Mandatory. The
	// settings string carries initial settings; args is a variable list
	// of implementation-defined parameters.
	OpenFunc func(d *Descriptor, settings string, log *mlog.Logger, args ...any) (Instance, error)

	// CloseFunc releases a processor instance and nils the reference.
	// Mandatory.
	CloseFunc func(ref *Instance)

	// PutFunc applies new settings to a running processor. Optional.
	PutFunc func(inst Instance, settings string) error

	// GetFunc returns the processor's representational state, including
	// its current settings. Asynchronous and thread safe. Optional.
	GetFunc func(inst Instance) (string, error)

	// ProcessFrameFunc processes one frame of data: it reads from the
	// input FIFO, processes completely, and writes any produced output
	// frame to the output FIFO. Mandatory.
	ProcessFrameFunc func(inst Instance, in, out *shmfifo.FIFO) error

	// OptFunc requests a processor-specific option identified by tag.
	// Optional.
	OptFunc func(inst Instance, tag string, args ...any) error
)

// Descriptor binds a named processor implementation to the pipeline. Each
// processor kind instantiates one unambiguous descriptor. The two hook
// fields customize how elements are marshalled into and out of a FIFO;
// left nil, elements travel as raw byte slices.
type Descriptor struct {
	// Name is the unambiguous processor identifier.
	Name string

	// Type is the processor type.
	Type string

	Open         OpenFunc
	Close        CloseFunc
	Put          PutFunc
	Get          GetFunc
	ProcessFrame ProcessFrameFunc
	Opt          OptFunc

	// IFIFOHook dequeues data frames to be processed from the input
	// FIFO. Optional.
	IFIFOHook shmfifo.DequeueFunc

	// OFIFOHook enqueues processed data frames to the output FIFO.
	// Optional.
	OFIFOHook shmfifo.EnqueueFunc
}

// Allocate returns a zeroed descriptor.
func Allocate() *Descriptor {
	return &Descriptor{}
}

// Dup returns an independent deep copy of the descriptor. Dup of nil
// returns nil.
func (d *Descriptor) Dup() *Descriptor {
	if d == nil {
		return nil
	}
	dup := *d
	return &dup
}

// Validate checks that the mandatory entry points are present.
func (d *Descriptor) Validate() error {
	if d == nil {
		return status.InvalidArg
	}
	if d.Open == nil || d.Close == nil || d.ProcessFrame == nil {
		return status.InvalidArg
	}
	return nil
}

// Equal reports whether two descriptors are interchangeable: byte-equal
// name and type strings and identical function values in every field,
// hooks included. Function values compare by code pointer, so two
// distinct closures created from the same function literal compare equal.
func Equal(a, b *Descriptor) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name && a.Type == b.Type &&
		sameFunc(a.Open, b.Open) &&
		sameFunc(a.Close, b.Close) &&
		sameFunc(a.Put, b.Put) &&
		sameFunc(a.Get, b.Get) &&
		sameFunc(a.ProcessFrame, b.ProcessFrame) &&
		sameFunc(a.Opt, b.Opt) &&
		sameFunc(a.IFIFOHook, b.IFIFOHook) &&
		sameFunc(a.OFIFOHook, b.OFIFOHook)
}

func sameFunc(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Release zeroes the descriptor and nils the given reference. Passing
// nil, or a reference to a nil descriptor, is a no-op.
func Release(ref **Descriptor) {
	if ref == nil || *ref == nil {
		return
	}
	**ref = Descriptor{}
	*ref = nil
}

// DefaultEnqueue is the enqueue hook used when a pipeline ships logical
// frames through a FIFO. The opaque value must be the *FrameArena shared
// by both hook ends; src must be a *Frame. The frame is duplicated, the
// duplicate parked in the arena, and the ticket written into dst.
func DefaultEnqueue(opaque any, dst []byte, src any, log *mlog.Logger) error {
	arena, ok := opaque.(*FrameArena)
	if !ok || len(dst) < shmfifo.TicketBytes {
		log.Errorf("default enqueue hook needs a frame arena and a ticket-wide slot\n")
		return status.Error
	}
	frame, ok := src.(*Frame)
	if !ok || frame == nil {
		log.Errorf("default enqueue hook transports *Frame elements only\n")
		return status.Error
	}
	ticket, err := arena.Park(frame.Dup())
	if err != nil {
		log.Warnf("frame arena exhausted\n")
		return err
	}
	binary.NativeEndian.PutUint64(dst, ticket)
	return nil
}

// DefaultDequeue is the matching dequeue hook: it redeems the ticket
// pulled from the FIFO and returns the parked frame. The receiver owns the
// frame. The reported size is the marshalled ticket width.
func DefaultDequeue(opaque any, src []byte, log *mlog.Logger) (any, int, error) {
	arena, ok := opaque.(*FrameArena)
	if !ok || len(src) != shmfifo.TicketBytes {
		log.Errorf("default dequeue hook needs a frame arena and a ticket-wide element\n")
		return nil, 0, status.Error
	}
	frame, err := arena.Redeem(binary.NativeEndian.Uint64(src))
	if err != nil {
		log.Errorf("could not redeem frame ticket: %v\n", err)
		return nil, 0, err
	}
	return frame, shmfifo.TicketBytes, nil
}
