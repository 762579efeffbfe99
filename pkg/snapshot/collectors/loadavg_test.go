// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package collectors_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/antimetal/hoststats/pkg/snapshot"
	"github.com/antimetal/hoststats/pkg/snapshot/collectors"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Valid scenarios
	validLoadavgContent    = "0.50 1.25 2.75 2/1234 12345"
	extraWhitespaceContent = "  0.50   1.25   2.75   2/1234   12345  "

	// Boundary conditions
	highLoadContent = "15.80 10.45 8.32 5/2048 98765"
	zeroLoadContent = "0.00 0.00 0.00 1/100 1"

	// Error conditions
	truncatedLoadContent = "0.50 1.25"
	invalidFloatContent  = "invalid 1.25 2.75 2/1234 12345"
	invalidProcContent   = "0.50 1.25 2.75 invalid_procs 12345"
	invalidPIDContent    = "0.50 1.25 2.75 2/1234 invalid_pid"
	whitespaceContent    = "   \n   \t   "
)

func createTestLoadavgCollector(t *testing.T, loadavgContent string) *collectors.LoadavgCollector {
	tmpDir := t.TempDir()

	if loadavgContent != "" {
		err := os.WriteFile(filepath.Join(tmpDir, "loadavg"), []byte(loadavgContent), 0644)
		require.NoError(t, err)
	}

	config := snapshot.CollectionConfig{
		HostProcPath: tmpDir,
	}
	collector, err := collectors.NewLoadavgCollector(logr.Discard(), config)
	require.NoError(t, err)
	return collector
}

func TestLoadavgCollector_Constructor(t *testing.T) {
	t.Run("error on relative path", func(t *testing.T) {
		config := snapshot.CollectionConfig{HostProcPath: "relative/path"}
		_, err := collectors.NewLoadavgCollector(logr.Discard(), config)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be an absolute path")
	})

	t.Run("error on empty path", func(t *testing.T) {
		config := snapshot.CollectionConfig{HostProcPath: ""}
		_, err := collectors.NewLoadavgCollector(logr.Discard(), config)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "HostProcPath is required but not provided")
	})

	t.Run("success on non-existent path", func(t *testing.T) {
		// Path existence is a collection-time concern, not a constructor one.
		config := snapshot.CollectionConfig{HostProcPath: "/non/existent/path/that/should/not/exist"}
		collector, err := collectors.NewLoadavgCollector(logr.Discard(), config)
		assert.NoError(t, err)
		assert.NotNil(t, collector)
	})
}

func TestLoadavgCollector_DataParsing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *snapshot.LoadavgStats
		wantErr bool
	}{
		{
			name:    "standard line",
			content: validLoadavgContent,
			want: &snapshot.LoadavgStats{
				Load1Min: 0.50, Load5Min: 1.25, Load15Min: 2.75,
				RunningProcs: 2, TotalProcs: 1234, LastPID: 12345,
			},
		},
		{
			name:    "extra whitespace",
			content: extraWhitespaceContent,
			want: &snapshot.LoadavgStats{
				Load1Min: 0.50, Load5Min: 1.25, Load15Min: 2.75,
				RunningProcs: 2, TotalProcs: 1234, LastPID: 12345,
			},
		},
		{
			name:    "high load",
			content: highLoadContent,
			want: &snapshot.LoadavgStats{
				Load1Min: 15.80, Load5Min: 10.45, Load15Min: 8.32,
				RunningProcs: 5, TotalProcs: 2048, LastPID: 98765,
			},
		},
		{
			name:    "idle system",
			content: zeroLoadContent,
			want: &snapshot.LoadavgStats{
				Load1Min: 0, Load5Min: 0, Load15Min: 0,
				RunningProcs: 1, TotalProcs: 100, LastPID: 1,
			},
		},
		{
			name:    "truncated line",
			content: truncatedLoadContent,
			wantErr: true,
		},
		{
			name:    "unparseable load",
			content: invalidFloatContent,
			wantErr: true,
		},
		{
			name:    "unparseable process counts",
			content: invalidProcContent,
			wantErr: true,
		},
		{
			name:    "unparseable last PID",
			content: invalidPIDContent,
			wantErr: true,
		},
		{
			name:    "whitespace only",
			content: whitespaceContent,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := createTestLoadavgCollector(t, tt.content)

			result, err := collector.Collect(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			stats, ok := result.(*snapshot.LoadavgStats)
			require.True(t, ok)
			assert.Equal(t, tt.want, stats)
		})
	}
}

func TestLoadavgCollector_MissingFile(t *testing.T) {
	collector := createTestLoadavgCollector(t, "")

	_, err := collector.Collect(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
