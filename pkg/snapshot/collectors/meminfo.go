// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package collectors

import (
	"bufio"
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
	snapshot.TryRegister(snapshot.SourceTypeMeminfo, func(logger logr.Logger, config snapshot.CollectionConfig) (snapshot.Collector, error) {
		return NewMeminfoCollector(logger, config)
	})
}

// Compile-time interface check
var _ snapshot.Collector = (*MeminfoCollector)(nil)

// MeminfoCollector reads memory usage from /proc/meminfo.
//
// Where the sysinfo source reports coarse totals in mem_unit blocks, this
// one carries the page cache, reclaim, and commit accounting the kernel
// only exposes through meminfo. Values are converted from the kernel's
// kilobytes to bytes.
//
// Reference: https://www.kernel.org/doc/html/latest/filesystems/proc.html#meminfo
type MeminfoCollector struct {
	snapshot.BaseCollector
	meminfoPath string
}

func NewMeminfoCollector(logger logr.Logger, config snapshot.CollectionConfig) (*MeminfoCollector, error) {
	if err := config.Validate(snapshot.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	caps := snapshot.CollectorCapabilities{
		RequiresRoot:     false,
		MinKernelVersion: "2.6.0", // /proc/meminfo has been around forever
	}

	return &MeminfoCollector{
		BaseCollector: snapshot.NewBaseCollector(
			snapshot.SourceTypeMeminfo,
			"Meminfo Collector",
			logger,
			config,
			caps,
		),
		meminfoPath: filepath.Join(config.HostProcPath, "meminfo"),
	}, nil
}

func (c *MeminfoCollector) Collect(ctx context.Context) (any, error) {
	return c.collectMeminfo()
}

// collectMeminfo reads and parses /proc/meminfo.
//
// Lines are formatted as "FieldName:   value kB". Individual field parse
// errors are logged and skipped so one odd line cannot sink the whole
// collection; missing fields are left at zero.
func (c *MeminfoCollector) collectMeminfo() (*snapshot.MeminfoStats, error) {
	file, err := os.Open(c.meminfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.meminfoPath, err)
	}
	defer file.Close()

	stats := &snapshot.MeminfoStats{}

	fieldMap := map[string]*uint64{
		"MemTotal":     &stats.MemTotal,
		"MemFree":      &stats.MemFree,
		"MemAvailable": &stats.MemAvailable,
		"Buffers":      &stats.Buffers,
		"Cached":       &stats.Cached,
		"SwapCached":   &stats.SwapCached,
		"Active":       &stats.Active,
		"Inactive":     &stats.Inactive,
		"SwapTotal":    &stats.SwapTotal,
		"SwapFree":     &stats.SwapFree,
		"Dirty":        &stats.Dirty,
		"Writeback":    &stats.Writeback,
		"Shmem":        &stats.Shmem,
		"Slab":         &stats.Slab,
		"CommitLimit":  &stats.CommitLimit,
		"Committed_AS": &stats.CommittedAS,
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		fieldName := strings.TrimSuffix(parts[0], ":")
		fieldPtr, ok := fieldMap[fieldName]
		if !ok {
			continue
		}

		value, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			c.Logger().V(2).Info("failed to parse meminfo field",
				"field", fieldName, "value", parts[1], "error", err)
			continue
		}

		*fieldPtr = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", c.meminfoPath, err)
	}

	// Everything tracked here is reported in kB.
	for _, fieldPtr := range fieldMap {
		*fieldPtr *= 1024
	}

	return stats, nil
}
