// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build amd64

package internal

// CacheLineSize is the L1 cache line size for x86-64.
// The shared FIFO header pads each futex word to this size so producers
// and consumers spinning on different words never share a line.
const CacheLineSize = 64
