// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package debug logs every snapshot to the agent's own logger. It is the
// default export sink and useful for verifying collection before pointing
// the agent at a real backend.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/antimetal/hoststats/internal/monitor"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

const (
	consumerName = "debug"

	// statsLogInterval is how many snapshots go by between periodic
	// consumer stats lines.
	statsLogInterval = 100
)

// Compile-time check that Consumer implements monitor.Consumer
var _ monitor.Consumer = (*Consumer)(nil)

// Consumer implements the snapshot consumer interface for debug logging
type Consumer struct {
	config Config
	logger logr.Logger

	// Runtime state
	healthy   atomic.Bool
	lastError atomic.Pointer[error]

	// Metrics
	snapshotsProcessed atomic.Uint64
	errorsCount        atomic.Uint64
	startTime          time.Time
}

func NewConsumer(config Config, logger logr.Logger) (*Consumer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	consumer := &Consumer{
		config:    config,
		logger:    logger.WithName("debug-consumer"),
		startTime: time.Now(),
	}

	consumer.healthy.Store(true)
	return consumer, nil
}

func (c *Consumer) Name() string {
	return consumerName
}

// HandleSnapshot processes a snapshot by logging it immediately.
// This is non-blocking and returns after the log call.
func (c *Consumer) HandleSnapshot(snap *snapshot.Snapshot) error {
	if err := c.processSnapshot(snap); err != nil {
		c.logger.Error(err, "Failed to process snapshot")
		c.errorsCount.Add(1)
		c.lastError.Store(&err)
		return err
	}

	c.snapshotsProcessed.Add(1)
	if c.snapshotsProcessed.Load()%statsLogInterval == 0 {
		c.logStats()
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting debug consumer",
		"log_format", c.config.LogFormat,
		"include_run_info", c.config.IncludeRunInfo)
	return nil
}

func (c *Consumer) Health() monitor.ConsumerHealth {
	var lastErr error
	if errPtr := c.lastError.Load(); errPtr != nil {
		lastErr = *errPtr
	}

	return monitor.ConsumerHealth{
		Healthy:        c.healthy.Load(),
		LastError:      lastErr,
		SnapshotsCount: c.snapshotsProcessed.Load(),
		ErrorsCount:    c.errorsCount.Load(),
	}
}

func (c *Consumer) processSnapshot(snap *snapshot.Snapshot) error {
	if c.config.LogFormat == LogFormatJSON {
		return c.logSnapshotJSON(snap)
	}
	return c.logSnapshotText(snap)
}

func (c *Consumer) logSnapshotJSON(snap *snapshot.Snapshot) error {
	entry := LogEntry{
		Timestamp: time.Now(),
		Consumer:  consumerName,
		Message:   "host snapshot",
		Snapshot:  NewSnapshotSummary(snap, c.config),
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	c.logger.Info(string(jsonBytes))
	return nil
}

func (c *Consumer) logSnapshotText(snap *snapshot.Snapshot) error {
	kvs := []any{
		"host", snap.Hostname,
		"kernel", snap.KernelRelease,
		"duration", snap.Run.Duration,
	}

	if s := snap.Stats.Sysinfo; s != nil && c.config.ShouldLogSource(string(snapshot.SourceTypeSysinfo)) {
		kvs = append(kvs,
			"uptime", s.Uptime,
			"load", fmt.Sprintf("%.2f/%.2f/%.2f", s.Load1Min, s.Load5Min, s.Load15Min),
			"ram_free", s.FreeRAM,
			"ram_total", s.TotalRAM,
			"swap_free", s.FreeSwap,
			"procs", s.Procs,
		)
	}

	if l := snap.Stats.Loadavg; l != nil && c.config.ShouldLogSource(string(snapshot.SourceTypeLoadavg)) {
		kvs = append(kvs,
			"loadavg", fmt.Sprintf("%.2f/%.2f/%.2f", l.Load1Min, l.Load5Min, l.Load15Min),
			"procs_running", l.RunningProcs,
			"procs_total", l.TotalProcs,
		)
	}

	if m := snap.Stats.Meminfo; m != nil && c.config.ShouldLogSource(string(snapshot.SourceTypeMeminfo)) {
		kvs = append(kvs,
			"mem_available", m.MemAvailable,
			"mem_total", m.MemTotal,
			"dirty", m.Dirty,
		)
	}

	c.logger.Info("host snapshot", kvs...)

	if c.config.IncludeRunInfo {
		for src, stat := range snap.Run.Collectors {
			c.logger.V(1).Info("collector run",
				"source", src,
				"status", stat.Status,
				"duration", stat.Duration,
				"error", stat.Error)
		}
	}

	return nil
}

func (c *Consumer) logStats() {
	c.logger.Info("Debug consumer stats",
		"snapshots_processed", c.snapshotsProcessed.Load(),
		"errors", c.errorsCount.Load(),
		"uptime", time.Since(c.startTime))
}
