// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package environment resolves host filesystem locations from the process
// environment.
package environment

import "os"

// HostPaths holds the host filesystem mount points. Inside a container the
// host's trees are typically bind-mounted somewhere else (e.g. /host/proc),
// and everything reading kernel interfaces goes through these paths instead
// of hardcoding the defaults.
type HostPaths struct {
	Proc string // path to the host's /proc
	Sys  string // path to the host's /sys
	Etc  string // path to the host's /etc
	Var  string // path to the host's /var
}

// GetHostPaths returns the host filesystem paths, honoring the HOST_PROC,
// HOST_SYS, HOST_ETC, and HOST_VAR environment variables when set.
func GetHostPaths() HostPaths {
	paths := HostPaths{
		Proc: "/proc",
		Sys:  "/sys",
		Etc:  "/etc",
		Var:  "/var",
	}

	if p := os.Getenv("HOST_PROC"); p != "" {
		paths.Proc = p
	}
	if p := os.Getenv("HOST_SYS"); p != "" {
		paths.Sys = p
	}
	if p := os.Getenv("HOST_ETC"); p != "" {
		paths.Etc = p
	}
	if p := os.Getenv("HOST_VAR"); p != "" {
		paths.Var = p
	}

	return paths
}
