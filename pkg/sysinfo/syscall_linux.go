// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package sysinfo

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// query is the single crossing into the kernel: it hands the trap a pointer
// to out and reports a non-zero status as the errno. sysinfo(2) never
// blocks, so the raw entry without scheduler cooperation is safe here.
func query(out *Info) error {
	if _, _, errno := unix.RawSyscall(unix.SYS_SYSINFO, uintptr(unsafe.Pointer(out)), 0, 0); errno != 0 {
		return errno
	}
	return nil
}
