// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/antimetal/hoststats/internal/config"
	"github.com/antimetal/hoststats/internal/export/debug"
	"github.com/antimetal/hoststats/internal/monitor"
	"github.com/antimetal/hoststats/pkg/snapshot"
	"github.com/antimetal/hoststats/pkg/sysinfo"
)

var (
	showOutput string
	showRaw    bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Collect one snapshot and print it",
	Long: "show runs every enabled collector once and prints the result.\n" +
		"Useful for checking what the agent would export.",
	Args:         cobra.NoArgs,
	RunE:         runShow,
	SilenceUsage: true,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "text", "Output format (text or json)")
	showCmd.Flags().BoolVar(&showRaw, "raw", false,
		"Print the undecoded sysinfo(2) result instead of the full snapshot")
}

func runShow(cmd *cobra.Command, args []string) error {
	if showOutput != "text" && showOutput != "json" {
		return fmt.Errorf("unknown output format %q (must be text or json)", showOutput)
	}

	if showRaw {
		return runShowRaw()
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mon, err := monitor.New(cfg.CollectionConfig(), logger)
	if err != nil {
		return err
	}

	snap, err := mon.Collect(cmd.Context())
	if err != nil {
		return err
	}

	if showOutput == "json" {
		return printJSON(snap)
	}
	printText(snap)
	return nil
}

// runShowRaw prints the kernel's struct exactly as returned: load averages
// in fixed-point encoding, memory quantities as counts of Unit-byte blocks.
func runShowRaw() error {
	info, err := sysinfo.Collect()
	if err != nil {
		return err
	}

	if showOutput == "json" {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sysinfo: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Uptime:    %d s\n", info.Uptime)
	fmt.Printf("Loads:     %d %d %d (scale 1/%d)\n",
		info.Loads[0], info.Loads[1], info.Loads[2], sysinfo.LoadScale)
	fmt.Printf("Totalram:  %d\n", info.Totalram)
	fmt.Printf("Freeram:   %d\n", info.Freeram)
	fmt.Printf("Sharedram: %d\n", info.Sharedram)
	fmt.Printf("Bufferram: %d\n", info.Bufferram)
	fmt.Printf("Totalswap: %d\n", info.Totalswap)
	fmt.Printf("Freeswap:  %d\n", info.Freeswap)
	fmt.Printf("Procs:     %d\n", info.Procs)
	fmt.Printf("Totalhigh: %d\n", info.Totalhigh)
	fmt.Printf("Freehigh:  %d\n", info.Freehigh)
	fmt.Printf("Unit:      %d B per block\n", info.Unit)
	return nil
}

func printJSON(snap *snapshot.Snapshot) error {
	summary := debug.NewSnapshotSummary(snap, debug.Config{IncludeRunInfo: true})
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printText(snap *snapshot.Snapshot) {
	fmt.Printf("Host: %s (kernel %s)\n", snap.Hostname, snap.KernelRelease)
	fmt.Printf("Collected: %s in %s\n\n", snap.Timestamp.Format(time.RFC3339), snap.Run.Duration)

	if s := snap.Stats.Sysinfo; s != nil {
		fmt.Printf("=== sysinfo ===\n")
		fmt.Printf("Uptime:     %s\n", formatDuration(s.Uptime))
		fmt.Printf("Load:       %.2f / %.2f / %.2f\n", s.Load1Min, s.Load5Min, s.Load15Min)
		fmt.Printf("RAM:        %s total, %s free, %s shared, %s buffers\n",
			formatBytes(s.TotalRAM), formatBytes(s.FreeRAM), formatBytes(s.SharedRAM), formatBytes(s.BufferRAM))
		fmt.Printf("Swap:       %s total, %s free\n", formatBytes(s.TotalSwap), formatBytes(s.FreeSwap))
		if s.TotalHigh > 0 {
			fmt.Printf("High mem:   %s total, %s free\n", formatBytes(s.TotalHigh), formatBytes(s.FreeHigh))
		}
		fmt.Printf("Processes:  %d\n", s.Procs)
		fmt.Printf("Mem unit:   %d B\n\n", s.MemUnit)
	}

	if l := snap.Stats.Loadavg; l != nil {
		fmt.Printf("=== loadavg ===\n")
		fmt.Printf("Load:       %.2f / %.2f / %.2f\n", l.Load1Min, l.Load5Min, l.Load15Min)
		fmt.Printf("Processes:  %d running of %d\n", l.RunningProcs, l.TotalProcs)
		fmt.Printf("Last PID:   %d\n\n", l.LastPID)
	}

	if m := snap.Stats.Meminfo; m != nil {
		fmt.Printf("=== meminfo ===\n")
		fmt.Printf("Total:      %s\n", formatBytes(m.MemTotal))
		fmt.Printf("Free:       %s\n", formatBytes(m.MemFree))
		fmt.Printf("Available:  %s\n", formatBytes(m.MemAvailable))
		fmt.Printf("Cached:     %s\n", formatBytes(m.Cached))
		fmt.Printf("Buffers:    %s\n", formatBytes(m.Buffers))
		fmt.Printf("Swap:       %s total, %s free\n", formatBytes(m.SwapTotal), formatBytes(m.SwapFree))
		fmt.Printf("Dirty:      %s\n", formatBytes(m.Dirty))
		fmt.Printf("Committed:  %s of %s limit\n\n", formatBytes(m.CommittedAS), formatBytes(m.CommitLimit))
	}

	sources := make([]string, 0, len(snap.Run.Collectors))
	for source := range snap.Run.Collectors {
		sources = append(sources, string(source))
	}
	sort.Strings(sources)

	fmt.Printf("=== collectors ===\n")
	for _, source := range sources {
		stat := snap.Run.Collectors[snapshot.SourceType(source)]
		if stat.Error != nil {
			fmt.Printf("%-10s %s: %v\n", source, stat.Status, stat.Error)
		} else {
			fmt.Printf("%-10s %s in %s\n", source, stat.Status, stat.Duration)
		}
	}
}
