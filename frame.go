// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpipe

// maxPlanes is the number of data planes a frame can carry (enough for any
// planar pixel or sample layout in use).
const maxPlanes = 4

// Frame is one logical media frame moved between processors: planar byte
// data plus the timing and identification the pipeline needs to route it.
type Frame struct {
	// Planes holds the frame payload, one byte slice per data plane.
	// Unused planes are nil.
	Planes [maxPlanes][]byte

	// Width and Height describe each plane in samples. For packed
	// formats only index 0 is meaningful.
	Width  [maxPlanes]int
	Height [maxPlanes]int

	// SampleFormat tags the payload layout. The tag space is owned by
	// the processor implementations.
	SampleFormat uint32

	// PTS and DTS are the presentation and decoding timestamps.
	PTS int64
	DTS int64

	// StreamID identifies the elementary stream the frame belongs to.
	StreamID int
}

// Dup returns an independent deep copy of the frame: every plane is copied
// into fresh memory. Dup of nil returns nil.
func (f *Frame) Dup() *Frame {
	if f == nil {
		return nil
	}
	dup := *f
	for i, p := range f.Planes {
		if p == nil {
			continue
		}
		dup.Planes[i] = make([]byte, len(p))
		copy(dup.Planes[i], p)
	}
	return &dup
}
