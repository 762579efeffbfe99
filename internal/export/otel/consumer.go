// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package otel exports snapshots to an OpenTelemetry collector over OTLP
// gRPC. Snapshots are recorded as gauges on arrival; a periodic reader
// pushes them to the collector on the configured export interval.
package otel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	metricSDK "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/antimetal/hoststats/internal/monitor"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

// Compile-time check
var _ monitor.Consumer = (*Consumer)(nil)

const (
	consumerName = "opentelemetry"

	// HeartbeatInterval defines how often to log processing heartbeat
	HeartbeatInterval = 100
)

// ErrNotStarted is returned when handling snapshots before Start
var ErrNotStarted = errors.New("opentelemetry consumer not started")

type Consumer struct {
	config Config
	logger logr.Logger

	// OpenTelemetry components
	exporter    metricSDK.Exporter
	provider    *metricSDK.MeterProvider
	meter       metric.Meter
	transformer *Transformer

	// Runtime state
	wg        sync.WaitGroup
	healthy   atomic.Bool
	lastError atomic.Pointer[error]

	// Metrics
	snapshotsProcessed atomic.Uint64
	errorsCount        atomic.Uint64
	startTime          time.Time
}

// NewConsumer creates a new OpenTelemetry snapshot consumer
func NewConsumer(config Config, logger logr.Logger) (*Consumer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	consumer := &Consumer{
		config:    config,
		logger:    logger.WithName("otel-consumer"),
		startTime: time.Now(),
	}

	// OpenTelemetry components are initialized in Start() when we have a context
	consumer.healthy.Store(true)
	return consumer, nil
}

// initOpenTelemetry initializes the OpenTelemetry components
func (c *Consumer) initOpenTelemetry(ctx context.Context) error {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(c.config.Endpoint),
		otlpmetricgrpc.WithTimeout(c.config.Timeout),
	}

	if c.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
	}

	if len(c.config.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(c.config.Headers))
	}

	if c.config.Compression == CompressionGZip {
		opts = append(opts, otlpmetricgrpc.WithCompressor(c.config.Compression.String()))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return err
	}
	c.exporter = exporter

	res := resource.NewWithAttributes(
		"",
		semconv.ServiceName(c.config.ServiceName),
		semconv.ServiceVersion(c.config.ServiceVersion),
		attribute.String("antimetal", "true"),
	)

	c.provider = metricSDK.NewMeterProvider(
		metricSDK.WithReader(metricSDK.NewPeriodicReader(
			exporter,
			metricSDK.WithInterval(c.config.ExportInterval),
		)),
		metricSDK.WithResource(res),
	)

	otel.SetMeterProvider(c.provider)

	c.meter = c.provider.Meter(
		"github.com/antimetal/hoststats",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	c.transformer = NewTransformer(c.meter, c.logger, c.config.ServiceVersion)

	return nil
}

// Name returns the consumer name identifier.
func (c *Consumer) Name() string {
	return consumerName
}

// HandleSnapshot records a snapshot's stats as gauges. Recording is
// in-memory and non-blocking; the periodic reader handles the network.
func (c *Consumer) HandleSnapshot(snap *snapshot.Snapshot) error {
	if c.transformer == nil {
		return ErrNotStarted
	}

	if err := c.transformer.TransformAndRecord(snap); err != nil {
		c.logger.Error(err, "Failed to record snapshot")
		c.errorsCount.Add(1)
		c.lastError.Store(&err)
		return err
	}

	c.snapshotsProcessed.Add(1)
	if c.snapshotsProcessed.Load()%HeartbeatInterval == 0 {
		c.logger.V(1).Info("OpenTelemetry consumer heartbeat",
			"snapshots_processed", c.snapshotsProcessed.Load(),
			"errors", c.errorsCount.Load())
	}

	return nil
}

// Start initializes the OTLP exporter and begins the export schedule.
// It returns immediately; shutdown happens when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting OpenTelemetry consumer",
		"endpoint", c.config.Endpoint,
		"service_name", c.config.ServiceName,
		"export_interval", c.config.ExportInterval)

	if err := c.initOpenTelemetry(ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-ctx.Done()
		c.shutdown()
	}()

	return nil
}

// shutdown flushes and stops the meter provider. A fresh context is used
// because the run context is already cancelled by the time we get here.
func (c *Consumer) shutdown() {
	if c.provider != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := c.provider.Shutdown(shutdownCtx); err != nil {
			c.logger.Error(err, "Error shutting down meter provider")
		}
	}

	c.logger.Info("OpenTelemetry consumer stopped",
		"snapshots_processed", c.snapshotsProcessed.Load(),
		"errors", c.errorsCount.Load(),
		"uptime", time.Since(c.startTime))
}

// Health returns the current health status of the consumer.
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
