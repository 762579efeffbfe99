// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package monitor

import (
	"context"

	"github.com/antimetal/hoststats/pkg/snapshot"
)

// Consumer receives each completed snapshot and forwards it to a sink.
// Consumers handle their own buffering and batching; HandleSnapshot is
// called from the collection loop and must not block on slow sinks.
type Consumer interface {
	// Name returns the unique name of this consumer
	Name() string

	// HandleSnapshot processes a single snapshot (non-blocking)
	HandleSnapshot(snap *snapshot.Snapshot) error

	// Start initializes the consumer (e.g., start background workers).
	// It must be called before the consumer is registered.
	Start(ctx context.Context) error

	// Health returns the current health status
	Health() ConsumerHealth
}

type ConsumerHealth struct {
	Healthy        bool
	LastError      error
	SnapshotsCount uint64
	ErrorsCount    uint64
}
