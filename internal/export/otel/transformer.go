// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package otel

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/antimetal/hoststats/pkg/snapshot"
)

// Transformer converts host snapshots to OpenTelemetry metrics
type Transformer struct {
	meter          metric.Meter
	logger         logr.Logger
	serviceVersion string // Service version to add as attribute

	// Cached instruments for performance
	instruments map[string]interface{}
	// instrumentsMutex protects the instruments map
	instrumentsMutex sync.RWMutex
}

// NewTransformer creates a new OpenTelemetry metrics transformer
func NewTransformer(meter metric.Meter, logger logr.Logger, serviceVersion string) *Transformer {
	return &Transformer{
		meter:          meter,
		logger:         logger.WithName("otel-transformer"),
		serviceVersion: serviceVersion,
		instruments:    make(map[string]interface{}),
	}
}

// TransformAndRecord converts a snapshot to OpenTelemetry gauges and records
// them. Recording is synchronous and in-memory; the periodic reader pushes
// the values to the collector on its own schedule.
//
// context.Background() is used internally because this is a metrics-only
// pipeline with no trace context or baggage to propagate, and gauge
// recording is instant so cancellation has nothing to interrupt.
func (t *Transformer) TransformAndRecord(snap *snapshot.Snapshot) error {
	ctx := context.Background()
	attrs := t.buildAttributes(snap)

	if s := snap.Stats.Sysinfo; s != nil {
		t.transformSysinfoStats(ctx, s, attrs)
	}
	if l := snap.Stats.Loadavg; l != nil {
		t.transformLoadavgStats(ctx, l, attrs)
	}
	if m := snap.Stats.Meminfo; m != nil {
		t.transformMeminfoStats(ctx, m, attrs)
	}

	return nil
}

// buildAttributes constructs the attributes shared by every data point of a
// snapshot: host.name from the snapshot and service.version from the
// transformer configuration.
func (t *Transformer) buildAttributes(snap *snapshot.Snapshot) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)

	if snap.Hostname != "" {
		attrs = append(attrs, attribute.String("host.name", snap.Hostname))
	}
	if t.serviceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", t.serviceVersion))
	}

	return attrs
}

// transformSysinfoStats records the kernel-reported system statistics
func (t *Transformer) transformSysinfoStats(ctx context.Context, stats *snapshot.SysinfoStats, attrs []attribute.KeyValue) {
	srcAttrs := append(attrs, attribute.String("source", string(snapshot.SourceTypeSysinfo)))

	if gauge, err := t.getOrCreateFloat64Gauge("system.uptime", "Time since the system booted", "s"); err == nil {
		gauge.Record(ctx, stats.Uptime.Seconds(), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.1m", "System load average over 1 minute", "1"); err == nil {
		gauge.Record(ctx, stats.Load1Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.5m", "System load average over 5 minutes", "1"); err == nil {
		gauge.Record(ctx, stats.Load5Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.15m", "System load average over 15 minutes", "1"); err == nil {
		gauge.Record(ctx, stats.Load15Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.usage", "Memory usage by state", "By"); err == nil {
		totalAttrs := append(srcAttrs, attribute.String("state", "total"))
		gauge.Record(ctx, int64(stats.TotalRAM), metric.WithAttributes(totalAttrs...))

		freeAttrs := append(srcAttrs, attribute.String("state", "free"))
		gauge.Record(ctx, int64(stats.FreeRAM), metric.WithAttributes(freeAttrs...))

		sharedAttrs := append(srcAttrs, attribute.String("state", "shared"))
		gauge.Record(ctx, int64(stats.SharedRAM), metric.WithAttributes(sharedAttrs...))

		bufferAttrs := append(srcAttrs, attribute.String("state", "buffers"))
		gauge.Record(ctx, int64(stats.BufferRAM), metric.WithAttributes(bufferAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.swap_usage", "Swap usage", "By"); err == nil {
		freeAttrs := append(srcAttrs, attribute.String("state", "free"))
		gauge.Record(ctx, int64(stats.FreeSwap), metric.WithAttributes(freeAttrs...))

		usedAttrs := append(srcAttrs, attribute.String("state", "used"))
		gauge.Record(ctx, int64(stats.TotalSwap-stats.FreeSwap), metric.WithAttributes(usedAttrs...))
	}

	// High memory only exists on 32-bit kernels; zero means not present.
	if stats.TotalHigh > 0 {
		if gauge, err := t.getOrCreateInt64Gauge("system.memory.high_usage", "High memory usage", "By"); err == nil {
			totalAttrs := append(srcAttrs, attribute.String("state", "total"))
			gauge.Record(ctx, int64(stats.TotalHigh), metric.WithAttributes(totalAttrs...))

			freeAttrs := append(srcAttrs, attribute.String("state", "free"))
			gauge.Record(ctx, int64(stats.FreeHigh), metric.WithAttributes(freeAttrs...))
		}
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.processes.count", "Number of processes", "1"); err == nil {
		totalAttrs := append(srcAttrs, attribute.String("state", "total"))
		gauge.Record(ctx, int64(stats.Procs), metric.WithAttributes(totalAttrs...))
	}
}

// transformLoadavgStats records the scheduler load averages and process counts
func (t *Transformer) transformLoadavgStats(ctx context.Context, stats *snapshot.LoadavgStats, attrs []attribute.KeyValue) {
	srcAttrs := append(attrs, attribute.String("source", string(snapshot.SourceTypeLoadavg)))

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.1m", "System load average over 1 minute", "1"); err == nil {
		gauge.Record(ctx, stats.Load1Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.5m", "System load average over 5 minutes", "1"); err == nil {
		gauge.Record(ctx, stats.Load5Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateFloat64Gauge("system.cpu.load_average.15m", "System load average over 15 minutes", "1"); err == nil {
		gauge.Record(ctx, stats.Load15Min, metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.processes.count", "Number of processes", "1"); err == nil {
		runningAttrs := append(srcAttrs, attribute.String("state", "running"))
		gauge.Record(ctx, int64(stats.RunningProcs), metric.WithAttributes(runningAttrs...))

		totalAttrs := append(srcAttrs, attribute.String("state", "total"))
		gauge.Record(ctx, int64(stats.TotalProcs), metric.WithAttributes(totalAttrs...))
	}
}

// transformMeminfoStats records the detailed memory accounting
func (t *Transformer) transformMeminfoStats(ctx context.Context, stats *snapshot.MeminfoStats, attrs []attribute.KeyValue) {
	srcAttrs := append(attrs, attribute.String("source", string(snapshot.SourceTypeMeminfo)))

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.usage", "Memory usage by state", "By"); err == nil {
		memoryStates := []struct {
			state string
			value uint64
		}{
			{"total", stats.MemTotal},
			{"free", stats.MemFree},
			{"available", stats.MemAvailable},
			{"cached", stats.Cached},
			{"buffers", stats.Buffers},
		}
		for _, ms := range memoryStates {
			stateAttrs := append(srcAttrs, attribute.String("state", ms.state))
			gauge.Record(ctx, int64(ms.value), metric.WithAttributes(stateAttrs...))
		}
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.swap_usage", "Swap usage", "By"); err == nil {
		freeAttrs := append(srcAttrs, attribute.String("state", "free"))
		gauge.Record(ctx, int64(stats.SwapFree), metric.WithAttributes(freeAttrs...))

		usedAttrs := append(srcAttrs, attribute.String("state", "used"))
		gauge.Record(ctx, int64(stats.SwapTotal-stats.SwapFree), metric.WithAttributes(usedAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.swap.cached", "Memory that was swapped out and is back in RAM", "By"); err == nil {
		gauge.Record(ctx, int64(stats.SwapCached), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.active", "Memory used recently", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Active), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.inactive", "Memory not used recently", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Inactive), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.dirty", "Memory waiting to be written back to disk", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Dirty), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.writeback", "Memory actively being written back to disk", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Writeback), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.shmem", "Shared memory", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Shmem), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.slab", "Kernel slab allocator memory", "By"); err == nil {
		gauge.Record(ctx, int64(stats.Slab), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.commit_limit", "Total memory currently available to be allocated", "By"); err == nil {
		gauge.Record(ctx, int64(stats.CommitLimit), metric.WithAttributes(srcAttrs...))
	}

	if gauge, err := t.getOrCreateInt64Gauge("system.memory.committed", "Memory presently allocated on the system", "By"); err == nil {
		gauge.Record(ctx, int64(stats.CommittedAS), metric.WithAttributes(srcAttrs...))
	}
}

// getOrCreateFloat64Gauge gets or creates a Float64Gauge instrument
func (t *Transformer) getOrCreateFloat64Gauge(name, description, unit string) (metric.Float64Gauge, error) {
	key := name + "_f64_gauge"

	t.instrumentsMutex.RLock()
	if inst, exists := t.instruments[key]; exists {
		t.instrumentsMutex.RUnlock()
		return inst.(metric.Float64Gauge), nil
	}
	t.instrumentsMutex.RUnlock()

	// Need to create instrument, acquire write lock
	t.instrumentsMutex.Lock()
	defer t.instrumentsMutex.Unlock()

	if inst, exists := t.instruments[key]; exists {
		return inst.(metric.Float64Gauge), nil
	}

	gauge, err := t.meter.Float64Gauge(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}

	t.instruments[key] = gauge
	return gauge, nil
}

// getOrCreateInt64Gauge gets or creates an Int64Gauge instrument
func (t *Transformer) getOrCreateInt64Gauge(name, description, unit string) (metric.Int64Gauge, error) {
	key := name + "_i64_gauge"

	t.instrumentsMutex.RLock()
	if inst, exists := t.instruments[key]; exists {
		t.instrumentsMutex.RUnlock()
		return inst.(metric.Int64Gauge), nil
	}
	t.instrumentsMutex.RUnlock()

	// Need to create instrument, acquire write lock
	t.instrumentsMutex.Lock()
	defer t.instrumentsMutex.Unlock()

	if inst, exists := t.instruments[key]; exists {
		return inst.(metric.Int64Gauge), nil
	}

	gauge, err := t.meter.Int64Gauge(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}

	t.instruments[key] = gauge
	return gauge, nil
}
