// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

// Package monitor runs the collection loop: on every interval it gathers
// stats from the enabled collectors, assembles them into a snapshot, and
// routes the snapshot to the registered consumers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/antimetal/hoststats/pkg/host"
	"github.com/antimetal/hoststats/pkg/kernel"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

// ErrMonitorClosed is returned when using a monitor whose Start has
// already returned.
var ErrMonitorClosed = errors.New("monitor is closed")

// Monitor drives periodic snapshot collection and fans completed
// snapshots out to consumers.
type Monitor struct {
	logger logr.Logger

	mu         sync.RWMutex
	cfg        snapshot.CollectionConfig
	collectors map[snapshot.SourceType]snapshot.Collector
	disabled   map[snapshot.SourceType]error
	consumers  map[string]Consumer
	latest     *snapshot.Snapshot
	closed     bool

	hostname      string
	kernelRelease string

	reconfigured chan struct{}
	snapshots    atomic.Uint64
}

// New builds a monitor for the enabled sources. Sources that are enabled
// in the config but unavailable on this host (see snapshot.TryRegister)
// are reported as disabled in every snapshot rather than failing
// construction.
func New(cfg snapshot.CollectionConfig, logger logr.Logger) (*Monitor, error) {
	m := &Monitor{
		logger:       logger.WithName("monitor"),
		consumers:    make(map[string]Consumer),
		reconfigured: make(chan struct{}, 1),
	}

	if err := m.configure(cfg); err != nil {
		return nil, err
	}

	hostname, err := host.Hostname()
	if err != nil {
		m.logger.V(1).Info("failed to resolve hostname", "error", err)
	}
	m.hostname = hostname

	if v, err := kernel.Current(); err != nil {
		m.logger.V(1).Info("failed to detect kernel version", "error", err)
	} else {
		m.kernelRelease = v.Raw
	}

	return m, nil
}

func (m *Monitor) configure(cfg snapshot.CollectionConfig) error {
	cfg.ApplyDefaults()

	needsProc := cfg.EnabledSources[snapshot.SourceTypeLoadavg] ||
		cfg.EnabledSources[snapshot.SourceTypeMeminfo]
	if err := cfg.Validate(snapshot.ValidateOptions{RequireHostProcPath: needsProc}); err != nil {
		return fmt.Errorf("invalid collection config: %w", err)
	}

	collectors := make(map[snapshot.SourceType]snapshot.Collector)
	for _, src := range snapshot.AvailableSources() {
		if !cfg.EnabledSources[src] {
			continue
		}
		factory, err := snapshot.GetCollector(src)
		if err != nil {
			return err
		}
		c, err := factory(m.logger, cfg)
		if err != nil {
			return fmt.Errorf("failed to create %s collector: %w", src, err)
		}
		collectors[src] = c
	}

	disabled := make(map[snapshot.SourceType]error)
	for src, u := range snapshot.UnavailableSources() {
		if cfg.EnabledSources[src] {
			disabled[src] = errors.New(u.Reason)
		}
	}

	if len(collectors) == 0 && len(disabled) == 0 {
		return fmt.Errorf("no sources enabled")
	}

	m.mu.Lock()
	m.cfg = cfg
	m.collectors = collectors
	m.disabled = disabled
	m.mu.Unlock()
	return nil
}

// UpdateConfig swaps in a new collection config. The running loop picks
// up interval changes without restarting.
func (m *Monitor) UpdateConfig(cfg snapshot.CollectionConfig) error {
	if err := m.configure(cfg); err != nil {
		return err
	}

	select {
	case m.reconfigured <- struct{}{}:
	default:
	}

	m.logger.Info("collection config updated", "interval", cfg.Interval)
	return nil
}

// RegisterConsumer adds a consumer to receive snapshots.
// The consumer must already be started by the caller before registration.
func (m *Monitor) RegisterConsumer(consumer Consumer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := consumer.Name()
	if _, exists := m.consumers[name]; exists {
		return fmt.Errorf("consumer %s already registered", name)
	}

	m.consumers[name] = consumer
	m.logger.Info("consumer registered", "consumer", name)
	return nil
}

// UnregisterConsumer removes a consumer
func (m *Monitor) UnregisterConsumer(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.consumers[name]; !exists {
		return fmt.Errorf("consumer %s not found", name)
	}

	delete(m.consumers, name)
	m.logger.Info("consumer unregistered", "consumer", name)
	return nil
}

// Start runs the collection loop and blocks until ctx is cancelled.
// The first snapshot is taken immediately rather than one interval in.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.RLock()
	interval := m.cfg.Interval
	m.mu.RUnlock()

	m.logger.Info("starting monitor", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.closed = true
			m.mu.Unlock()
			m.logger.Info("monitor stopped")
			return nil
		case <-ticker.C:
			m.runOnce(ctx)
		case <-m.reconfigured:
			m.mu.RLock()
			interval = m.cfg.Interval
			m.mu.RUnlock()
			ticker.Reset(interval)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	snap, err := m.Collect(ctx)
	if err != nil {
		m.logger.Error(err, "snapshot collection failed")
		return
	}

	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	m.snapshots.Add(1)
	m.publish(snap)
}

// Collect takes a single snapshot. Individual collector failures do not
// fail the snapshot; they are recorded per source in Run.Collectors.
func (m *Monitor) Collect(ctx context.Context) (*snapshot.Snapshot, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrMonitorClosed
	}
	collectors := m.collectors
	disabled := m.disabled
	m.mu.RUnlock()

	start := time.Now()
	snap := &snapshot.Snapshot{
		Timestamp:     start,
		Hostname:      m.hostname,
		KernelRelease: m.kernelRelease,
		Run: snapshot.CollectorRunInfo{
			Collectors: make(map[snapshot.SourceType]snapshot.CollectorStat),
		},
	}

	for src, c := range collectors {
		collectStart := time.Now()
		data, err := c.Collect(ctx)
		stat := snapshot.CollectorStat{
			Status:   snapshot.CollectorStatusActive,
			Duration: time.Since(collectStart),
		}

		if err != nil {
			stat.Status = snapshot.CollectorStatusFailed
			stat.Error = err
			m.logger.Error(err, "collector failed", "source", src)
		} else if !m.assign(snap, data) {
			stat.Status = snapshot.CollectorStatusDegraded
			stat.Error = fmt.Errorf("unexpected data type %T", data)
			m.logger.V(1).Info("collector returned unexpected data type",
				"source", src, "type", fmt.Sprintf("%T", data))
		}

		snap.Run.Collectors[src] = stat
	}

	for src, reason := range disabled {
		snap.Run.Collectors[src] = snapshot.CollectorStat{
			Status: snapshot.CollectorStatusDisabled,
			Error:  reason,
		}
	}

	snap.Run.Duration = time.Since(start)
	return snap, nil
}

func (m *Monitor) assign(snap *snapshot.Snapshot, data any) bool {
	switch v := data.(type) {
	case *snapshot.SysinfoStats:
		snap.Stats.Sysinfo = v
	case *snapshot.LoadavgStats:
		snap.Stats.Loadavg = v
	case *snapshot.MeminfoStats:
		snap.Stats.Meminfo = v
	default:
		return false
	}
	return true
}

// Latest returns the most recently published snapshot, or nil before the
// first collection completes.
func (m *Monitor) Latest() *snapshot.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) publish(snap *snapshot.Snapshot) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, consumer := range m.consumers {
		if err := consumer.HandleSnapshot(snap); err != nil {
			// Log but don't fail - other consumers should still get the snapshot
			m.logger.V(1).Info("consumer failed to handle snapshot",
				"consumer", name, "error", err)
		}
	}
}

// GetStats returns monitor statistics
func (m *Monitor) GetStats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	consumerStats := make(map[string]ConsumerHealth)
	for name, consumer := range m.consumers {
		consumerStats[name] = consumer.Health()
	}

	return MonitorStats{
		SnapshotsTaken: m.snapshots.Load(),
		ConsumerCount:  len(m.consumers),
		Consumers:      consumerStats,
	}
}

// MonitorStats contains metrics about the collection loop
type MonitorStats struct {
	SnapshotsTaken uint64
	ConsumerCount  int
	Consumers      map[string]ConsumerHealth
}
