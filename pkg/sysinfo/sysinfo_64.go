// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x)

package sysinfo

import "unsafe"

// sizeofInfo is sizeof(struct sysinfo) with 8-byte longs: the kernel's _f
// tail collapses to zero characters and alignment rounds the struct up to
// 112 bytes.
const sizeofInfo = 112

// Info mirrors struct sysinfo from <linux/sysinfo.h> on architectures where
// __kernel_ulong_t is 8 bytes. Field order, widths, and padding must match
// the kernel exactly; the kernel writes by offset, so every field after a
// divergence would read garbage.
type Info struct {
	Uptime    int64     // Seconds since boot
	Loads     [3]uint64 // 1, 5, and 15 minute load averages, scaled by LoadScale
	Totalram  uint64    // Total usable main memory, in Unit-byte blocks
	Freeram   uint64    // Available memory
	Sharedram uint64    // Amount of shared memory
	Bufferram uint64    // Memory used by buffers
	Totalswap uint64    // Total swap space
	Freeswap  uint64    // Swap space still available
	Procs     uint16    // Number of current processes
	Pad       uint16    // Explicit padding carried by the kernel struct
	_         [4]byte   // Alignment of Totalhigh to the next long word
	Totalhigh uint64    // Total high memory
	Freehigh  uint64    // Available high memory
	Unit      uint32    // Memory block size in bytes
	_         [0]int8   // The kernel's _f tail, empty at this word size
	_         [4]byte   // Trailing alignment to the struct's long-word size
}

// The ABI contract is enforced at compile time: either subtraction going
// negative refuses to build.
const (
	_ = uint(sizeofInfo - unsafe.Sizeof(Info{}))
	_ = uint(unsafe.Sizeof(Info{}) - sizeofInfo)
)
