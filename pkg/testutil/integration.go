// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

// Package testutil provides helpers for integration tests that depend on a
// real Linux host.
package testutil

import (
	"os"
	"runtime"
	"testing"

	"github.com/antimetal/hoststats/pkg/kernel"
)

// RequireLinux skips the test if not running on Linux.
func RequireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Test requires Linux")
	}
}

// RequireProcFilesystem verifies that /proc is mounted. Collectors read it
// directly, so tests exercising the live system need it present.
func RequireProcFilesystem(t *testing.T) {
	t.Helper()
	RequireLinux(t)

	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skipf("Test requires /proc filesystem: %v", err)
	}
}

// RequireRoot checks if the test is running as root.
// Some operations require root privileges.
func RequireRoot(t *testing.T) {
	t.Helper()
	RequireLinux(t)

	if os.Geteuid() != 0 {
		t.Skip("Test requires root privileges")
	}
}

// RequireKernelVersion skips the test when the running kernel is older than
// the given version.
func RequireKernelVersion(t *testing.T, major, minor, patch int) {
	t.Helper()
	RequireLinux(t)

	current, err := kernel.Current()
	if err != nil {
		t.Skipf("Failed to get kernel version: %v", err)
	}

	min := &kernel.Version{Major: major, Minor: minor, Patch: patch}
	if !current.AtLeast(min) {
		t.Skipf("Test requires kernel %s or higher, current is %s", min, current)
	}
}
