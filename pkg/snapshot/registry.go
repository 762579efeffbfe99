// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package snapshot

import (
	"fmt"
	"log"
	"os"

	"github.com/antimetal/hoststats/pkg/kernel"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// NewCollector creates a collector instance with the provided logger and
// configuration.
type NewCollector func(logr.Logger, CollectionConfig) (Collector, error)

var (
	registry              = make(map[SourceType]NewCollector)
	unavailableCollectors = make(map[SourceType]UnavailableCollector)
	registryLogger        = stdr.New(log.New(os.Stderr, "[snapshot.registry] ", log.LstdFlags))
)

// UnavailableCollector records why a collector cannot run on this host
type UnavailableCollector struct {
	Source               SourceType
	Reason               string
	MinKernelVersion     string
	CurrentKernelVersion string
}

// Register adds a collector factory to the global registry for source.
//
// This is called during package initialization (typically from init
// functions) so collectors are known before a monitor is built. It panics
// if a factory for source is already registered.
func Register(source SourceType, factory NewCollector) {
	if _, exists := registry[source]; exists {
		panic(fmt.Sprintf("collector for %s already registered", source))
	}
	registry[source] = factory
}

// TryRegister registers a collector factory only if the host can run it.
// A collector that cannot run is tracked in the unavailable list with the
// reason instead of being registered. Unlike Register it never panics on
// platform problems, only on duplicate registration.
func TryRegister(source SourceType, factory NewCollector) {
	if _, exists := registry[source]; exists {
		panic(fmt.Sprintf("collector for %s already registered", source))
	}

	// Instantiate once against defaults to ask for capabilities.
	tempLogger := registryLogger.WithName(string(source))
	collector, err := factory(tempLogger, DefaultCollectionConfig())
	if err != nil {
		unavailableCollectors[source] = UnavailableCollector{
			Source: source,
			Reason: fmt.Sprintf("failed to create collector: %v", err),
		}
		registryLogger.Info("collector not available on this host",
			"source", source, "reason", err.Error())
		return
	}

	caps := collector.Capabilities()

	if caps.RequiresRoot && os.Geteuid() != 0 {
		unavailableCollectors[source] = UnavailableCollector{
			Source: source,
			Reason: "requires root",
		}
		registryLogger.Info("collector requires root", "source", source)
		return
	}

	if caps.MinKernelVersion != "" {
		minVersion, err := kernel.Parse(caps.MinKernelVersion)
		if err != nil {
			unavailableCollectors[source] = UnavailableCollector{
				Source: source,
				Reason: fmt.Sprintf("invalid minimum kernel version %q: %v", caps.MinKernelVersion, err),
			}
			return
		}

		current, err := kernel.Current()
		if err != nil {
			unavailableCollectors[source] = UnavailableCollector{
				Source:           source,
				Reason:           fmt.Sprintf("failed to detect kernel version: %v", err),
				MinKernelVersion: caps.MinKernelVersion,
			}
			registryLogger.Info("failed to detect kernel version",
				"source", source, "error", err.Error())
			return
		}

		if !current.AtLeast(minVersion) {
			unavailableCollectors[source] = UnavailableCollector{
				Source:               source,
				Reason:               "kernel too old",
				MinKernelVersion:     caps.MinKernelVersion,
				CurrentKernelVersion: current.Raw,
			}
			registryLogger.Info("collector needs a newer kernel",
				"source", source,
				"min_kernel_version", caps.MinKernelVersion,
				"current_kernel_version", current.Raw)
			return
		}
	}

	registry[source] = factory
	registryLogger.V(1).Info("registered collector", "source", source)
}

// GetCollector retrieves the collector factory for source from the global
// registry.
func GetCollector(source SourceType) (NewCollector, error) {
	factory, exists := registry[source]
	if !exists {
		return nil, fmt.Errorf("collector for %s not found", source)
	}
	return factory, nil
}

// AvailableSources returns the sources with a registered, runnable
// collector.
func AvailableSources() []SourceType {
	sources := make([]SourceType, 0, len(registry))
	for source := range registry {
		sources = append(sources, source)
	}
	return sources
}

// UnavailableSources returns the collectors that cannot run on this host
// and why.
func UnavailableSources() map[SourceType]UnavailableCollector {
	result := make(map[SourceType]UnavailableCollector, len(unavailableCollectors))
	for k, v := range unavailableCollectors {
		result[k] = v
	}
	return result
}

// SetRegistryLogger replaces the registry's fallback logger. Call it before
// any collectors register.
func SetRegistryLogger(logger logr.Logger) {
	registryLogger = logger
}
