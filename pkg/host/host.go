// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

// Package host identifies the machine the process runs on.
package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antimetal/hoststats/pkg/config/environment"
)

// Hostname returns the hostname reported by the kernel. Reading it through
// the host's proc mount means it names the host machine even from inside a
// container; if that fails the process-local hostname is used.
func Hostname() (string, error) {
	hostPaths := environment.GetHostPaths()
	data, err := os.ReadFile(filepath.Join(hostPaths.Proc, "sys/kernel/hostname"))
	if err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name, nil
		}
	}
	return os.Hostname()
}

// MachineID returns the machine ID set during installation or first boot.
// Sources in order of preference:
//  1. /etc/machine-id (systemd standard)
//  2. /var/lib/dbus/machine-id (D-Bus fallback)
func MachineID() (string, error) {
	hostPaths := environment.GetHostPaths()

	for _, path := range []string{
		filepath.Join(hostPaths.Etc, "machine-id"),
		filepath.Join(hostPaths.Var, "lib/dbus/machine-id"),
	} {
		if data, err := os.ReadFile(path); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("machine-id not found")
}

// SystemUUID reads the hardware UUID from DMI. It is distinct from the
// machine ID and names the hardware or virtual machine platform. Usually
// requires root.
func SystemUUID() (string, error) {
	hostPaths := environment.GetHostPaths()
	data, err := os.ReadFile(filepath.Join(hostPaths.Sys, "class/dmi/id/product_uuid"))
	if err == nil {
		if uuid := strings.TrimSpace(string(data)); uuid != "" {
			return uuid, nil
		}
	}
	return "", fmt.Errorf("system uuid not found")
}
