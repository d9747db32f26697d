// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"time"

	"code.hybscloud.com/mpipe/mlog"
	"code.hybscloud.com/mpipe/status"
)

// TicketBytes is the marshalled width of a logical element reference: the
// platform's pointer width.
const TicketBytes = sizeFieldBytes

// EnqueueFunc marshals a logical element into dst before it enters the
// pool. PushElem pre-sizes dst to TicketBytes for every hook. The opaque
// value is whatever was given to SetElemHooks.
type EnqueueFunc func(opaque any, dst []byte, src any, log *mlog.Logger) error

// DequeueFunc reconstructs a logical element from the raw bytes pulled out
// of the pool. The returned element is owned by the receiver.
type DequeueFunc func(opaque any, src []byte, log *mlog.Logger) (elem any, size int, err error)

// SetElemHooks attaches the element-marshalling hooks used by PushElem and
// PullElem. Hooks are local to this handle, not part of the shared
// segment. With nil hooks, elements are transported as raw byte slices.
func (f *FIFO) SetElemHooks(enq EnqueueFunc, deq DequeueFunc, opaque any) {
	if f == nil {
		return
	}
	f.enq, f.deq, f.opaque = enq, deq, opaque
}

// PushElem transports a logical element through the pool. With an enqueue
// hook set, the hook marshals src into a TicketBytes-wide slot; otherwise
// src must be a []byte and is pushed as-is.
func (f *FIFO) PushElem(src any, log *mlog.Logger) error {
	if f == nil || f.hdr == nil || src == nil {
		return status.Error
	}
	if f.enq == nil {
		raw, ok := src.([]byte)
		if !ok {
			log.Errorf("no enqueue hook set and element is not a byte slice\n")
			return status.Error
		}
		return f.Push(raw, log)
	}
	slot := make([]byte, TicketBytes)
	if err := f.enq(f.opaque, slot, src, log); err != nil {
		return err
	}
	return f.Push(slot, log)
}

// PullElem pulls one frame and runs it through the dequeue hook when one
// is set; otherwise the raw byte copy is returned. The element and its
// logical size are handed to the caller, who owns them.
func (f *FIFO) PullElem(timeout time.Duration, log *mlog.Logger) (any, int, error) {
	raw, err := f.Pull(timeout, log)
	if err != nil {
		return nil, 0, err
	}
	if f.deq == nil {
		return raw, len(raw), nil
	}
	return f.deq(f.opaque, raw, log)
}
