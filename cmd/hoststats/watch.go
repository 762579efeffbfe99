// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/antimetal/hoststats/internal/config"
	"github.com/antimetal/hoststats/internal/export/debug"
	"github.com/antimetal/hoststats/internal/export/otel"
	"github.com/antimetal/hoststats/internal/monitor"
	"github.com/antimetal/hoststats/internal/version"
)

var (
	watchInterval       time.Duration
	watchLogFormat      string
	watchIncludeRunInfo bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously collect snapshots and export them",
	Long: "watch runs the collection loop until interrupted, exporting each\n" +
		"snapshot through the configured exporter. With --config the file is\n" +
		"watched and changes are applied without a restart.",
	Args:         cobra.NoArgs,
	RunE:         runWatch,
	SilenceUsage: true,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0,
		"Collection interval (overrides the config file)")
	watchCmd.Flags().StringVar(&watchLogFormat, "log-format", debug.LogFormatText.String(),
		"Debug exporter output format (text or json)")
	watchCmd.Flags().BoolVar(&watchIncludeRunInfo, "include-run-info", false,
		"Include per-collector run info in debug exporter output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger, err := newLogger()
	if err != nil {
		return err
	}

	var cfg config.Config
	var loader *config.Loader
	if configPath != "" {
		loader, err = config.NewLoader(configPath, logger)
		if err != nil {
			return err
		}
		defer loader.Close()
		cfg = loader.Current()
	} else {
		cfg, err = config.Load("")
		if err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("interval") {
		if watchInterval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", watchInterval)
		}
		cfg.Interval = watchInterval
	}

	mon, err := monitor.New(cfg.CollectionConfig(), logger)
	if err != nil {
		return err
	}

	consumer, err := newConsumer(cfg, logger)
	if err != nil {
		return err
	}
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s exporter: %w", consumer.Name(), err)
	}
	if err := mon.RegisterConsumer(consumer); err != nil {
		return err
	}
	logger.Info("exporter started", "consumer", consumer.Name())

	if loader != nil {
		updates := loader.Watch()
		// The channel arrives primed with the current config; drain it so
		// only real changes reach the monitor.
		select {
		case <-updates:
		default:
		}
		go applyUpdates(ctx, mon, updates, logger)
	}

	return mon.Start(ctx)
}

func applyUpdates(ctx context.Context, mon *monitor.Monitor, updates <-chan config.Config, logger logr.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-updates:
			if !ok {
				return
			}
			// An explicit --interval keeps winning over file edits.
			if watchInterval > 0 {
				next.Interval = watchInterval
			}
			if err := mon.UpdateConfig(next.CollectionConfig()); err != nil {
				logger.Error(err, "failed to apply updated config, keeping previous")
			}
		}
	}
}

// newConsumer builds the exporter named by the config. Exporter settings
// resolved from the file and HOSTSTATS_* environment still defer to the
// standard OTEL_* variables when those are set.
func newConsumer(cfg config.Config, logger logr.Logger) (monitor.Consumer, error) {
	switch cfg.Export.Mode {
	case config.ExporterOTLP:
		otelConfig := otel.DefaultConfig()
		otelConfig.Endpoint = cfg.Export.OTLP.Endpoint
		otelConfig.Insecure = cfg.Export.OTLP.Insecure
		otelConfig.ExportInterval = cfg.Export.OTLP.Interval
		otelConfig.ServiceName = cfg.Export.OTLP.ServiceName
		otelConfig.ServiceVersion = version.Version()
		otelConfig.ApplyEnvironmentVariables()
		return otel.NewConsumer(otelConfig, logger)
	case config.ExporterDebug:
		debugConfig := debug.DefaultConfig()
		debugConfig.LogFormat = debug.LogFormat(watchLogFormat)
		debugConfig.IncludeRunInfo = watchIncludeRunInfo
		return debug.NewConsumer(debugConfig, logger)
	default:
		return nil, fmt.Errorf("unknown export mode %q", cfg.Export.Mode)
	}
}
