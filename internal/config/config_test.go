// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/hoststats/internal/config"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("HOST_PROC", "")

	cfg := config.Default()

	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Empty(t, cfg.Sources)
	assert.Equal(t, "/proc", cfg.HostProc)
	assert.Equal(t, config.ExporterDebug, cfg.Export.Mode)
	assert.Equal(t, "localhost:4317", cfg.Export.OTLP.Endpoint)
	assert.True(t, cfg.Export.OTLP.Insecure)
	assert.Equal(t, 30*time.Second, cfg.Export.OTLP.Interval)
	assert.Equal(t, "hoststats", cfg.Export.OTLP.ServiceName)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `
interval: 1s
sources:
  - loadavg
  - meminfo
host_proc: /host/proc
export:
  mode: otlp
  otlp:
    endpoint: collector:4317
    insecure: false
    interval: 10s
    service_name: edge-agent
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, []snapshot.SourceType{snapshot.SourceTypeLoadavg, snapshot.SourceTypeMeminfo}, cfg.Sources)
	assert.Equal(t, "/host/proc", cfg.HostProc)
	assert.Equal(t, config.ExporterOTLP, cfg.Export.Mode)
	assert.Equal(t, "collector:4317", cfg.Export.OTLP.Endpoint)
	assert.False(t, cfg.Export.OTLP.Insecure)
	assert.Equal(t, 10*time.Second, cfg.Export.OTLP.Interval)
	assert.Equal(t, "edge-agent", cfg.Export.OTLP.ServiceName)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, "interval: 2s\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, config.ExporterDebug, cfg.Export.Mode)
	assert.Equal(t, "localhost:4317", cfg.Export.OTLP.Endpoint)
	assert.True(t, cfg.Export.OTLP.Insecure)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FileMalformed(t *testing.T) {
	path := writeConfigFile(t, "interval: [1s\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfigFile(t, "interval: fast\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
interval: 10s
export:
  mode: debug
`)

	t.Setenv("HOSTSTATS_INTERVAL", "250ms")
	t.Setenv("HOSTSTATS_EXPORT_MODE", "otlp")
	t.Setenv("HOSTSTATS_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("HOSTSTATS_OTLP_INSECURE", "false")
	t.Setenv("HOSTSTATS_OTLP_SERVICE_NAME", "hoststats-test")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, config.ExporterOTLP, cfg.Export.Mode)
	assert.Equal(t, "otel:4317", cfg.Export.OTLP.Endpoint)
	assert.False(t, cfg.Export.OTLP.Insecure)
	assert.Equal(t, "hoststats-test", cfg.Export.OTLP.ServiceName)
}

func TestLoad_EnvInvalid(t *testing.T) {
	t.Setenv("HOSTSTATS_INTERVAL", "yesterday")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOSTSTATS_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *config.Config) {},
		},
		{
			name: "otlp mode with endpoint is valid",
			mutate: func(c *config.Config) {
				c.Export.Mode = config.ExporterOTLP
			},
		},
		{
			name: "zero interval",
			mutate: func(c *config.Config) {
				c.Interval = 0
			},
			wantErr: "interval must be positive",
		},
		{
			name: "unknown source",
			mutate: func(c *config.Config) {
				c.Sources = []snapshot.SourceType{"diskstats"}
			},
			wantErr: `unknown source "diskstats"`,
		},
		{
			name: "unknown export mode",
			mutate: func(c *config.Config) {
				c.Export.Mode = "statsd"
			},
			wantErr: `unknown export mode "statsd"`,
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *config.Config) {
				c.Export.Mode = config.ExporterOTLP
				c.Export.OTLP.Endpoint = ""
			},
			wantErr: "export.otlp.endpoint is required",
		},
		{
			name: "otlp zero interval",
			mutate: func(c *config.Config) {
				c.Export.Mode = config.ExporterOTLP
				c.Export.OTLP.Interval = 0
			},
			wantErr: "export.otlp.interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCollectionConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Interval = 2 * time.Second
	cfg.HostProc = "/host/proc"

	cc := cfg.CollectionConfig()
	assert.Equal(t, 2*time.Second, cc.Interval)
	assert.Equal(t, "/host/proc", cc.HostProcPath)
	for src, enabled := range cc.EnabledSources {
		assert.True(t, enabled, "source %s should default to enabled", src)
	}

	cfg.Sources = []snapshot.SourceType{snapshot.SourceTypeLoadavg}
	cc = cfg.CollectionConfig()
	assert.True(t, cc.EnabledSources[snapshot.SourceTypeLoadavg])
	assert.False(t, cc.EnabledSources[snapshot.SourceTypeSysinfo])
	assert.False(t, cc.EnabledSources[snapshot.SourceTypeMeminfo])
}

func TestCopy(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []snapshot.SourceType{snapshot.SourceTypeSysinfo}

	dup := cfg.Copy()
	dup.Sources[0] = snapshot.SourceTypeMeminfo

	assert.Equal(t, snapshot.SourceTypeSysinfo, cfg.Sources[0])
}
