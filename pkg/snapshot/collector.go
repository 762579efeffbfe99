// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package snapshot assembles point-in-time host statistics from kernel
// interfaces. Each SourceType has a collector that reads one interface and
// returns one typed stats value; a collection run fans out over the enabled
// collectors and folds their results into a Snapshot.
package snapshot

import (
	"context"

	"github.com/go-logr/logr"
)

// Collector performs a one-shot read of a single kernel interface.
type Collector interface {
	Source() SourceType
	Name() string

	// Collect reads the interface once and returns the typed stats value
	// for this source.
	Collect(ctx context.Context) (any, error)

	Capabilities() CollectorCapabilities
}

// CollectorCapabilities describes what a collector needs from the platform.
type CollectorCapabilities struct {
	RequiresRoot     bool
	MinKernelVersion string
}

// BaseCollector carries the identity and wiring every collector shares.
// Embed it and implement Collect.
type BaseCollector struct {
	source SourceType
	name   string
	logger logr.Logger
	config CollectionConfig
	caps   CollectorCapabilities
}

func NewBaseCollector(source SourceType, name string, logger logr.Logger, config CollectionConfig, caps CollectorCapabilities) BaseCollector {
	return BaseCollector{
		source: source,
		name:   name,
		logger: logger.WithName(string(source)),
		config: config,
		caps:   caps,
	}
}

func (b *BaseCollector) Source() SourceType {
	return b.source
}

func (b *BaseCollector) Name() string {
	return b.name
}

func (b *BaseCollector) Capabilities() CollectorCapabilities {
	return b.caps
}

func (b *BaseCollector) Logger() logr.Logger {
	return b.logger
}

func (b *BaseCollector) Config() CollectionConfig {
	return b.config
}
