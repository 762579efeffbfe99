// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package snapshot

import (
	"fmt"
	"path/filepath"
	"time"
)

// SourceType names a kernel interface a collector reads.
type SourceType string

const (
	SourceTypeSysinfo SourceType = "sysinfo"
	SourceTypeLoadavg SourceType = "loadavg"
	SourceTypeMeminfo SourceType = "meminfo"
)

// CollectorStatus represents the operational status of a collector
type CollectorStatus string

const (
	CollectorStatusActive   CollectorStatus = "active"
	CollectorStatusDegraded CollectorStatus = "degraded"
	CollectorStatusFailed   CollectorStatus = "failed"
	CollectorStatusDisabled CollectorStatus = "disabled"
)

// Snapshot is a complete host statistics snapshot at a point in time.
type Snapshot struct {
	Timestamp     time.Time
	Hostname      string
	KernelRelease string
	Run           CollectorRunInfo
	Stats         Stats
}

// CollectorRunInfo contains metadata about a collection run
type CollectorRunInfo struct {
	Duration   time.Duration
	Collectors map[SourceType]CollectorStat
}

// CollectorStat tracks an individual collector's part of a run
type CollectorStat struct {
	Status   CollectorStatus
	Duration time.Duration
	Error    error
}

// Stats holds everything collected in one run. A nil member means its
// source was disabled or failed; Run carries the reason.
type Stats struct {
	Sysinfo *SysinfoStats
	Loadavg *LoadavgStats
	Meminfo *MeminfoStats
}

// SysinfoStats is the decoded form of the sysinfo(2) snapshot: memory
// quantities multiplied out to bytes and load averages lifted out of the
// kernel's fixed-point encoding.
type SysinfoStats struct {
	// Time since boot, at one second granularity
	Uptime time.Duration
	// Load averages over 1, 5, and 15 minutes
	Load1Min  float64
	Load5Min  float64
	Load15Min float64
	// Memory totals in bytes
	TotalRAM  uint64
	FreeRAM   uint64
	SharedRAM uint64
	BufferRAM uint64
	TotalSwap uint64
	FreeSwap  uint64
	TotalHigh uint64
	FreeHigh  uint64
	// Number of current processes
	Procs uint16
	// The kernel's memory block size in bytes, kept for reference
	MemUnit uint32
}

// LoadavgStats represents scheduler load as read from /proc/loadavg
type LoadavgStats struct {
	// Load averages (1st through 3rd fields)
	Load1Min  float64
	Load5Min  float64
	Load15Min float64
	// Runnable/total scheduling entities (4th field, e.g. "2/1234")
	RunningProcs int32
	TotalProcs   int32
	// Most recently allocated PID (5th field)
	LastPID int32
}

// MeminfoStats represents memory usage as read from /proc/meminfo.
// All values are in bytes.
type MeminfoStats struct {
	MemTotal     uint64 // MemTotal: total usable RAM
	MemFree      uint64 // MemFree: free memory
	MemAvailable uint64 // MemAvailable: memory available for new workloads
	Buffers      uint64 // Buffers: block device buffer cache
	Cached       uint64 // Cached: page cache, excluding SwapCached
	SwapCached   uint64 // SwapCached: swapped-out memory back in RAM
	Active       uint64 // Active: recently used memory
	Inactive     uint64 // Inactive: candidate memory for reclaim
	SwapTotal    uint64 // SwapTotal: total swap space
	SwapFree     uint64 // SwapFree: unused swap space
	Dirty        uint64 // Dirty: memory waiting for writeback
	Writeback    uint64 // Writeback: memory actively being written back
	Shmem        uint64 // Shmem: total shared memory
	Slab         uint64 // Slab: total slab allocator memory
	CommitLimit  uint64 // CommitLimit: allocatable memory ceiling
	CommittedAS  uint64 // Committed_AS: memory committed to workloads
}

// CollectionConfig represents configuration for snapshot collection
type CollectionConfig struct {
	Interval       time.Duration
	EnabledSources map[SourceType]bool
	HostProcPath   string // path to /proc (useful for containers)
}

// DefaultCollectionConfig returns a default configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Interval: time.Second,
		EnabledSources: map[SourceType]bool{
			SourceTypeSysinfo: true,
			SourceTypeLoadavg: true,
			SourceTypeMeminfo: true,
		},
		HostProcPath: "/proc",
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.Interval == 0 {
		c.Interval = defaults.Interval
	}
	if c.EnabledSources == nil {
		c.EnabledSources = defaults.EnabledSources
	}
	if c.HostProcPath == "" {
		c.HostProcPath = defaults.HostProcPath
	}
}

// ValidateOptions specifies validation requirements for CollectionConfig
type ValidateOptions struct {
	RequireHostProcPath bool
}

// Validate ensures required paths are present and that any configured path
// is absolute. Collectors that read no files at all pass an empty options
// struct.
func (c *CollectionConfig) Validate(opt ValidateOptions) error {
	if opt.RequireHostProcPath && c.HostProcPath == "" {
		return fmt.Errorf("HostProcPath is required but not provided")
	}
	if c.HostProcPath != "" && !filepath.IsAbs(c.HostProcPath) {
		return fmt.Errorf("HostProcPath must be an absolute path, got: %q", c.HostProcPath)
	}
	return nil
}
