// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package debug

import (
	"fmt"
	"time"

	"github.com/antimetal/hoststats/pkg/snapshot"
)

// LogEntry represents a structured log entry for JSON output
type LogEntry struct {
	Timestamp time.Time        `json:"timestamp"`
	Consumer  string           `json:"consumer"`
	Message   string           `json:"message"`
	Snapshot  *SnapshotSummary `json:"snapshot,omitempty"`
	Stats     *ConsumerStats   `json:"stats,omitempty"`
}

// SnapshotSummary provides a condensed view of snapshots for logging
type SnapshotSummary struct {
	CollectedAt   time.Time         `json:"collected_at"`
	Hostname      string            `json:"hostname,omitempty"`
	KernelRelease string            `json:"kernel_release,omitempty"`
	Duration      string            `json:"duration"`
	Sources       []string          `json:"sources"`
	Sysinfo       *sysinfoSummary   `json:"sysinfo,omitempty"`
	Loadavg       *loadavgSummary   `json:"loadavg,omitempty"`
	Meminfo       *meminfoSummary   `json:"meminfo,omitempty"`
	Collectors    map[string]string `json:"collectors,omitempty"`
}

type sysinfoSummary struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Load1Min      float64 `json:"load_1min"`
	Load5Min      float64 `json:"load_5min"`
	Load15Min     float64 `json:"load_15min"`
	TotalRAM      uint64  `json:"total_ram_bytes"`
	FreeRAM       uint64  `json:"free_ram_bytes"`
	SharedRAM     uint64  `json:"shared_ram_bytes"`
	BufferRAM     uint64  `json:"buffer_ram_bytes"`
	TotalSwap     uint64  `json:"total_swap_bytes"`
	FreeSwap      uint64  `json:"free_swap_bytes"`
	Procs         uint16  `json:"procs"`
	MemUnit       uint32  `json:"mem_unit"`
}

type loadavgSummary struct {
	Load1Min     float64 `json:"load_1min"`
	Load5Min     float64 `json:"load_5min"`
	Load15Min    float64 `json:"load_15min"`
	RunningProcs int32   `json:"running_procs"`
	TotalProcs   int32   `json:"total_procs"`
	LastPID      int32   `json:"last_pid"`
}

type meminfoSummary struct {
	MemTotal     uint64 `json:"mem_total_bytes"`
	MemFree      uint64 `json:"mem_free_bytes"`
	MemAvailable uint64 `json:"mem_available_bytes"`
	Buffers      uint64 `json:"buffers_bytes"`
	Cached       uint64 `json:"cached_bytes"`
	SwapTotal    uint64 `json:"swap_total_bytes"`
	SwapFree     uint64 `json:"swap_free_bytes"`
	Dirty        uint64 `json:"dirty_bytes"`
}

// ConsumerStats provides runtime statistics for the debug consumer
type ConsumerStats struct {
	SnapshotsProcessed uint64        `json:"snapshots_processed"`
	ErrorsCount        uint64        `json:"errors_count"`
	Uptime             time.Duration `json:"uptime"`
}

// NewSnapshotSummary condenses a snapshot into its loggable form, honoring
// the config's source filter and run info settings.
func NewSnapshotSummary(snap *snapshot.Snapshot, cfg Config) *SnapshotSummary {
	summary := &SnapshotSummary{
		CollectedAt:   snap.Timestamp,
		Hostname:      snap.Hostname,
		KernelRelease: snap.KernelRelease,
		Duration:      snap.Run.Duration.String(),
	}

	if s := snap.Stats.Sysinfo; s != nil && cfg.ShouldLogSource(string(snapshot.SourceTypeSysinfo)) {
		summary.Sources = append(summary.Sources, string(snapshot.SourceTypeSysinfo))
		summary.Sysinfo = &sysinfoSummary{
			UptimeSeconds: s.Uptime.Seconds(),
			Load1Min:      s.Load1Min,
			Load5Min:      s.Load5Min,
			Load15Min:     s.Load15Min,
			TotalRAM:      s.TotalRAM,
			FreeRAM:       s.FreeRAM,
			SharedRAM:     s.SharedRAM,
			BufferRAM:     s.BufferRAM,
			TotalSwap:     s.TotalSwap,
			FreeSwap:      s.FreeSwap,
			Procs:         s.Procs,
			MemUnit:       s.MemUnit,
		}
	}

	if l := snap.Stats.Loadavg; l != nil && cfg.ShouldLogSource(string(snapshot.SourceTypeLoadavg)) {
		summary.Sources = append(summary.Sources, string(snapshot.SourceTypeLoadavg))
		summary.Loadavg = &loadavgSummary{
			Load1Min:     l.Load1Min,
			Load5Min:     l.Load5Min,
			Load15Min:    l.Load15Min,
			RunningProcs: l.RunningProcs,
			TotalProcs:   l.TotalProcs,
			LastPID:      l.LastPID,
		}
	}

	if m := snap.Stats.Meminfo; m != nil && cfg.ShouldLogSource(string(snapshot.SourceTypeMeminfo)) {
		summary.Sources = append(summary.Sources, string(snapshot.SourceTypeMeminfo))
		summary.Meminfo = &meminfoSummary{
			MemTotal:     m.MemTotal,
			MemFree:      m.MemFree,
			MemAvailable: m.MemAvailable,
			Buffers:      m.Buffers,
			Cached:       m.Cached,
			SwapTotal:    m.SwapTotal,
			SwapFree:     m.SwapFree,
			Dirty:        m.Dirty,
		}
	}

	if cfg.IncludeRunInfo {
		summary.Collectors = make(map[string]string, len(snap.Run.Collectors))
		for src, stat := range snap.Run.Collectors {
			entry := fmt.Sprintf("%s in %s", stat.Status, stat.Duration)
			if stat.Error != nil {
				entry = fmt.Sprintf("%s: %v", stat.Status, stat.Error)
			}
			summary.Collectors[string(src)] = entry
		}
	}

	return summary
}
