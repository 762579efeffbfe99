// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Manual end-to-end check for the OTLP exporter. Run an OpenTelemetry
// collector on localhost:4317 and watch the metrics arrive:
//
//	docker run --rm -p 4317:4317 otel/opentelemetry-collector
//	go run ./test/test-otel-metrics.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/antimetal/hoststats/internal/export/otel"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

func main() {
	zapLog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger := zapr.NewLogger(zapLog)

	otelConfig := otel.DefaultConfig()
	otelConfig.Endpoint = "localhost:4317"
	otelConfig.Insecure = true
	otelConfig.ExportInterval = 5 * time.Second
	otelConfig.ServiceName = "hoststats-smoke"

	consumer, err := otel.NewConsumer(otelConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create OpenTelemetry consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start OpenTelemetry consumer: %v", err)
	}

	logger.Info("OpenTelemetry metrics test started - sending sample snapshots")

	go func() {
		for i := 0; i < 10; i++ {
			if err := consumer.HandleSnapshot(sampleSnapshot(i)); err != nil {
				logger.Error(err, "Failed to handle snapshot")
			}
			logger.Info(fmt.Sprintf("Sent snapshot %d", i+1))
			time.Sleep(2 * time.Second)
		}
	}()

	// Wait for interrupt
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	logger.Info("Shutting down...")
	cancel()

	// Shutdown flushes in the background; give it a moment before exiting.
	time.Sleep(2 * time.Second)
	logger.Info("OpenTelemetry metrics test completed")
}

// sampleSnapshot fabricates a snapshot that drifts over iterations so the
// exported gauges visibly move.
func sampleSnapshot(i int) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Timestamp:     time.Now(),
		Hostname:      "test-host",
		KernelRelease: "6.8.0-test",
		Stats: snapshot.Stats{
			Sysinfo: &snapshot.SysinfoStats{
				Uptime:    time.Duration(3600+i*2) * time.Second,
				Load1Min:  0.5 + float64(i)*0.1,
				Load5Min:  0.4 + float64(i)*0.05,
				Load15Min: 0.3,
				TotalRAM:  8589934592,                      // 8GB
				FreeRAM:   2147483648 - uint64(i)*10485760, // 2GB - decreasing
				SharedRAM: 134217728,
				BufferRAM: 268435456,
				TotalSwap: 2147483648,
				FreeSwap:  2147483648,
				Procs:     uint16(200 + i),
				MemUnit:   1,
			},
			Loadavg: &snapshot.LoadavgStats{
				Load1Min:     0.5 + float64(i)*0.1,
				Load5Min:     0.4 + float64(i)*0.05,
				Load15Min:    0.3,
				RunningProcs: int32(1 + i%3),
				TotalProcs:   int32(200 + i),
				LastPID:      int32(10000 + i),
			},
			Meminfo: &snapshot.MeminfoStats{
				MemTotal:     8589934592,                      // 8GB
				MemFree:      2147483648 - uint64(i)*10485760, // 2GB - decreasing
				MemAvailable: 3221225472 - uint64(i)*5242880,  // 3GB - decreasing
				Buffers:      134217728,
				Cached:       536870912,
				SwapTotal:    2147483648,
				SwapFree:     2147483648,
			},
		},
	}
}
