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
	"time"

	"github.com/antimetal/hoststats/pkg/snapshot"
	"github.com/antimetal/hoststats/pkg/sysinfo"
	"github.com/go-logr/logr"
)

func init() {
	snapshot.Register(snapshot.SourceTypeSysinfo, func(logger logr.Logger, config snapshot.CollectionConfig) (snapshot.Collector, error) {
		return NewSysinfoCollector(logger, config)
	})
}

// Compile-time interface check
var _ snapshot.Collector = (*SysinfoCollector)(nil)

// SysinfoCollector snapshots kernel statistics through sysinfo(2).
//
// Unlike the proc-based collectors it reads no files at all, so it works
// even where a host /proc is not mounted. Decoding happens here rather
// than in the binding: block counts come out as bytes and the fixed-point
// load averages come out as floats.
type SysinfoCollector struct {
	snapshot.BaseCollector
}

func NewSysinfoCollector(logger logr.Logger, config snapshot.CollectionConfig) (*SysinfoCollector, error) {
	if err := config.Validate(snapshot.ValidateOptions{}); err != nil {
		return nil, err
	}

	caps := snapshot.CollectorCapabilities{
		RequiresRoot:     false,
		MinKernelVersion: "2.3.23", // first kernel that reports mem_unit
	}

	return &SysinfoCollector{
		BaseCollector: snapshot.NewBaseCollector(
			snapshot.SourceTypeSysinfo,
			"Sysinfo Collector",
			logger,
			config,
			caps,
		),
	}, nil
}

func (c *SysinfoCollector) Collect(ctx context.Context) (any, error) {
	info, err := sysinfo.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to collect sysinfo stats: %w", err)
	}
	return decodeSysinfo(info), nil
}

// decodeSysinfo multiplies block counts out to bytes and lifts the load
// averages from the kernel's fixed-point encoding.
func decodeSysinfo(info sysinfo.Info) *snapshot.SysinfoStats {
	unit := uint64(info.Unit)
	if unit == 0 {
		// Kernels before 2.3.23 reported sizes directly in bytes.
		unit = 1
	}

	return &snapshot.SysinfoStats{
		Uptime:    time.Duration(info.Uptime) * time.Second,
		Load1Min:  float64(info.Loads[0]) / sysinfo.LoadScale,
		Load5Min:  float64(info.Loads[1]) / sysinfo.LoadScale,
		Load15Min: float64(info.Loads[2]) / sysinfo.LoadScale,
		TotalRAM:  uint64(info.Totalram) * unit,
		FreeRAM:   uint64(info.Freeram) * unit,
		SharedRAM: uint64(info.Sharedram) * unit,
		BufferRAM: uint64(info.Bufferram) * unit,
		TotalSwap: uint64(info.Totalswap) * unit,
		FreeSwap:  uint64(info.Freeswap) * unit,
		TotalHigh: uint64(info.Totalhigh) * unit,
		FreeHigh:  uint64(info.Freehigh) * unit,
		Procs:     info.Procs,
		MemUnit:   info.Unit,
	}
}
