// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

// Package sysinfo binds the Linux sysinfo(2) system call.
//
// The Info struct mirrors the kernel's struct sysinfo for the target
// architecture byte for byte, so a populated value reads exactly like the C
// struct: memory quantities are counts of Unit-byte blocks and the load
// averages keep the kernel's fixed-point encoding (see LoadScale). The
// package does not decode, cache, or retry anything; every call is one
// fresh syscall and each returned Info is an independent copy.
//
// struct sysinfo is not part of any other platform's ABI, so the package
// only builds on Linux.
package sysinfo

import "fmt"

// LoadScale is the fixed-point scale of the Loads fields, 1 << SI_LOAD_SHIFT
// in kernel terms. Divide a Loads entry by LoadScale to recover the load
// average as a float.
const LoadScale = 1 << 16

// Collect returns a snapshot of system statistics from the kernel.
//
// The snapshot is zeroed before the kernel populates it and is returned by
// value, so no state is shared between calls or callers. A non-zero kernel
// status comes back as an error wrapping the errno, with no snapshot.
func Collect() (Info, error) {
	var info Info
	if err := query(&info); err != nil {
		return Info{}, fmt.Errorf("sysinfo syscall failed: %w", err)
	}
	return info, nil
}

// CollectUnchecked is Collect without the status check.
//
// If the syscall fails, the returned Info is whatever survived zeroing:
// all fields read as an idle machine a moment after boot. Prefer Collect
// anywhere that distinction matters.
func CollectUnchecked() Info {
	var info Info
	_ = query(&info)
	return info
}
