// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package debug_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/hoststats/internal/export/debug"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

// captureLogger returns a logger that appends every rendered line to out.
func captureLogger(out *[]string) logr.Logger {
	return funcr.New(func(prefix, args string) {
		*out = append(*out, args)
	}, funcr.Options{Verbosity: 2})
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Timestamp:     time.Now(),
		Hostname:      "node-1",
		KernelRelease: "6.8.0-41-generic",
		Run: snapshot.CollectorRunInfo{
			Duration: 3 * time.Millisecond,
			Collectors: map[snapshot.SourceType]snapshot.CollectorStat{
				snapshot.SourceTypeSysinfo: {
					Status:   snapshot.CollectorStatusActive,
					Duration: time.Millisecond,
				},
			},
		},
		Stats: snapshot.Stats{
			Sysinfo: &snapshot.SysinfoStats{
				Uptime:    90 * time.Minute,
				Load1Min:  0.5,
				Load5Min:  1.25,
				Load15Min: 2.75,
				TotalRAM:  8 << 30,
				FreeRAM:   2 << 30,
				Procs:     321,
				MemUnit:   1,
			},
			Loadavg: &snapshot.LoadavgStats{
				Load1Min:     0.5,
				RunningProcs: 2,
				TotalProcs:   1234,
				LastPID:      4321,
			},
			Meminfo: &snapshot.MeminfoStats{
				MemTotal:     8 << 30,
				MemFree:      2 << 30,
				MemAvailable: 4 << 30,
			},
		},
	}
}

func TestNewConsumer_InvalidFormat(t *testing.T) {
	var lines []string

	_, err := debug.NewConsumer(debug.Config{LogFormat: "xml"}, captureLogger(&lines))
	assert.ErrorIs(t, err, debug.ErrInvalidLogFormat)
}

func TestConsumer_Name(t *testing.T) {
	var lines []string

	c, err := debug.NewConsumer(debug.DefaultConfig(), captureLogger(&lines))
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Name())
}

func TestConsumer_HandleSnapshotText(t *testing.T) {
	var lines []string

	c, err := debug.NewConsumer(debug.DefaultConfig(), captureLogger(&lines))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.HandleSnapshot(testSnapshot()))

	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "node-1")
	assert.Contains(t, last, "6.8.0-41-generic")
	assert.Contains(t, last, "0.50/1.25/2.75")

	health := c.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, uint64(1), health.SnapshotsCount)
	assert.Equal(t, uint64(0), health.ErrorsCount)
}

func TestConsumer_HandleSnapshotJSON(t *testing.T) {
	var lines []string

	cfg := debug.DefaultConfig()
	cfg.LogFormat = debug.LogFormatJSON

	c, err := debug.NewConsumer(cfg, captureLogger(&lines))
	require.NoError(t, err)

	require.NoError(t, c.HandleSnapshot(testSnapshot()))

	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "hostname")
	assert.Contains(t, last, "node-1")
	assert.Contains(t, last, "total_ram_bytes")
}

func TestConsumer_SourceFilter(t *testing.T) {
	var lines []string

	cfg := debug.DefaultConfig()
	cfg.SourceFilter = []string{string(snapshot.SourceTypeSysinfo)}

	c, err := debug.NewConsumer(cfg, captureLogger(&lines))
	require.NoError(t, err)

	require.NoError(t, c.HandleSnapshot(testSnapshot()))

	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Contains(t, last, "uptime")
	assert.NotContains(t, last, "procs_running")
	assert.NotContains(t, last, "mem_available")
}

func TestConsumer_RunInfo(t *testing.T) {
	var lines []string

	cfg := debug.DefaultConfig()
	cfg.IncludeRunInfo = true

	c, err := debug.NewConsumer(cfg, captureLogger(&lines))
	require.NoError(t, err)

	require.NoError(t, c.HandleSnapshot(testSnapshot()))

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "collector run")
	assert.Contains(t, joined, string(snapshot.CollectorStatusActive))
}

func TestConsumer_CountsSnapshots(t *testing.T) {
	var lines []string

	c, err := debug.NewConsumer(debug.DefaultConfig(), captureLogger(&lines))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.HandleSnapshot(testSnapshot()))
	}

	assert.Equal(t, uint64(3), c.Health().SnapshotsCount)
}
