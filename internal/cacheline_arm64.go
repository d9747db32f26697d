// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build arm64

package internal

// CacheLineSize is the cache line size assumed for ARM64.
// 128 bytes is the conservative value (Apple Silicon L2); most Cortex-A
// cores use 64-byte L1 lines. The value feeds the shared FIFO header
// layout, so every process mapping a segment on the same machine computes
// the same offsets.
const CacheLineSize = 128
