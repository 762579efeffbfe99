// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/antimetal/hoststats/pkg/snapshot"
	"github.com/go-logr/logr"
)

func init() {
	snapshot.TryRegister(snapshot.SourceTypeLoadavg, func(logger logr.Logger, config snapshot.CollectionConfig) (snapshot.Collector, error) {
		return NewLoadavgCollector(logger, config)
	})
}

// Compile-time interface check
var _ snapshot.Collector = (*LoadavgCollector)(nil)

// LoadavgCollector reads scheduler load from /proc/loadavg.
//
// It overlaps the sysinfo source on the three load windows but reads them
// at the kernel's display precision, and adds the runnable/total entity
// counts and last PID that sysinfo(2) does not expose.
type LoadavgCollector struct {
	snapshot.BaseCollector
	loadavgPath string
}

func NewLoadavgCollector(logger logr.Logger, config snapshot.CollectionConfig) (*LoadavgCollector, error) {
	if err := config.Validate(snapshot.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	caps := snapshot.CollectorCapabilities{
		RequiresRoot:     false,
		MinKernelVersion: "2.6.0", // /proc/loadavg has been around forever
	}

	return &LoadavgCollector{
		BaseCollector: snapshot.NewBaseCollector(
			snapshot.SourceTypeLoadavg,
			"Load Average Collector",
			logger,
			config,
			caps,
		),
		loadavgPath: filepath.Join(config.HostProcPath, "loadavg"),
	}, nil
}

func (c *LoadavgCollector) Collect(ctx context.Context) (any, error) {
	return c.collectLoadavg()
}

// collectLoadavg parses /proc/loadavg.
// Format: 0.00 0.01 0.05 1/234 5678
// Where: 1min 5min 15min runnable/total lastpid
func (c *LoadavgCollector) collectLoadavg() (*snapshot.LoadavgStats, error) {
	data, err := os.ReadFile(c.loadavgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.loadavgPath, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 5 {
		return nil, fmt.Errorf("unexpected format in %s: %s", c.loadavgPath, string(data))
	}

	stats := &snapshot.LoadavgStats{}

	if stats.Load1Min, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return nil, fmt.Errorf("failed to parse 1min load: %w", err)
	}
	if stats.Load5Min, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return nil, fmt.Errorf("failed to parse 5min load: %w", err)
	}
	if stats.Load15Min, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return nil, fmt.Errorf("failed to parse 15min load: %w", err)
	}

	procParts := strings.Split(fields[3], "/")
	if len(procParts) != 2 {
		return nil, fmt.Errorf("unexpected process counts format: %s", fields[3])
	}

	running, err := strconv.ParseInt(procParts[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse runnable count: %w", err)
	}
	stats.RunningProcs = int32(running)

	total, err := strconv.ParseInt(procParts[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total count: %w", err)
	}
	stats.TotalProcs = int32(total)

	lastPID, err := strconv.ParseInt(fields[4], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last PID: %w", err)
	}
	stats.LastPID = int32(lastPID)

	return stats, nil
}
