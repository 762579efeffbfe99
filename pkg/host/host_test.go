// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package host_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antimetal/hoststats/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostname(t *testing.T) {
	name, err := host.Hostname()
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, "\n")
}

func TestMachineIDFromHostPaths(t *testing.T) {
	etc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(etc, "machine-id"), []byte("8a1f3c5e9b2d4f6a8c0e2a4c6e8f0a2c\n"), 0644))
	t.Setenv("HOST_ETC", etc)

	id, err := host.MachineID()
	require.NoError(t, err)
	assert.Equal(t, "8a1f3c5e9b2d4f6a8c0e2a4c6e8f0a2c", id)
}

func TestMachineIDDbusFallback(t *testing.T) {
	etc := t.TempDir()
	varDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(varDir, "lib/dbus"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(varDir, "lib/dbus/machine-id"), []byte("0123456789abcdef0123456789abcdef\n"), 0644))
	t.Setenv("HOST_ETC", etc)
	t.Setenv("HOST_VAR", varDir)

	id, err := host.MachineID()
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", id)
}

func TestMachineIDMissing(t *testing.T) {
	t.Setenv("HOST_ETC", t.TempDir())
	t.Setenv("HOST_VAR", t.TempDir())

	_, err := host.MachineID()
	assert.Error(t, err)
}

func TestSystemUUIDMissing(t *testing.T) {
	t.Setenv("HOST_SYS", t.TempDir())

	_, err := host.SystemUUID()
	assert.Error(t, err)
}
