// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux && (386 || arm || mips || mipsle)

package sysinfo

import "unsafe"

// sizeofInfo is sizeof(struct sysinfo) with 4-byte longs: the kernel's _f
// tail keeps 8 characters and the struct lands on 64 bytes with no implicit
// padding.
const sizeofInfo = 64

// Info mirrors struct sysinfo from <linux/sysinfo.h> on architectures where
// __kernel_ulong_t is 4 bytes. Field order, widths, and padding must match
// the kernel exactly; the kernel writes by offset, so every field after a
// divergence would read garbage.
type Info struct {
	Uptime    int32     // Seconds since boot
	Loads     [3]uint32 // 1, 5, and 15 minute load averages, scaled by LoadScale
	Totalram  uint32    // Total usable main memory, in Unit-byte blocks
	Freeram   uint32    // Available memory
	Sharedram uint32    // Amount of shared memory
	Bufferram uint32    // Memory used by buffers
	Totalswap uint32    // Total swap space
	Freeswap  uint32    // Swap space still available
	Procs     uint16    // Number of current processes
	Pad       uint16    // Explicit padding carried by the kernel struct
	Totalhigh uint32    // Total high memory
	Freehigh  uint32    // Available high memory
	Unit      uint32    // Memory block size in bytes
	_         [8]int8   // The kernel's _f tail, 8 characters at this word size
}

// The ABI contract is enforced at compile time: either subtraction going
// negative refuses to build.
const (
	_ = uint(sizeofInfo - unsafe.Sizeof(Info{}))
	_ = uint(unsafe.Sizeof(Info{}) - sizeofInfo)
)
