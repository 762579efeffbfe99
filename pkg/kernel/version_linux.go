// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package kernel

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Current returns the running kernel's version as reported by uname(2).
func Current() (*Version, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, fmt.Errorf("uname syscall failed: %w", err)
	}

	release := strings.TrimRight(string(uts.Release[:]), "\x00")
	return Parse(release)
}
