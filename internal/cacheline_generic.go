// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !amd64 && !arm64

package internal

// CacheLineSize is the default cache line size for other 64-bit
// architectures (riscv64, loong64, ppc64, ppc64le, s390x, mips64,
// mips64le). 64 bytes is the most common value on modern CPUs.
//
// 32-bit architectures are not supported: the shared FIFO header uses a
// pointer-width signed size field and 64-bit counters.
const CacheLineSize = 64
