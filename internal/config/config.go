// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config loads the agent configuration from an optional YAML file
// and HOSTSTATS_* environment variables. Settings resolve in layers:
// built-in defaults, then the config file, then the environment, with
// later layers overriding earlier ones.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antimetal/hoststats/pkg/config/environment"
	"github.com/antimetal/hoststats/pkg/snapshot"
)

const (
	// EnvPrefix is prepended to every environment variable the agent reads,
	// except the HOST_* path overrides handled by pkg/config/environment.
	EnvPrefix = "HOSTSTATS_"

	ExporterDebug = "debug"
	ExporterOTLP  = "otlp"
)

const (
	DefaultInterval        = 5 * time.Second
	DefaultExporter        = ExporterDebug
	DefaultOTLPEndpoint    = "localhost:4317"
	DefaultOTLPInterval    = 30 * time.Second
	DefaultOTLPServiceName = "hoststats"
)

// File mirrors the on-disk YAML document. Zero values mean "not set";
// durations are strings in time.ParseDuration syntax.
type File struct {
	Interval string     `yaml:"interval,omitempty"`
	Sources  []string   `yaml:"sources,omitempty"`
	HostProc string     `yaml:"host_proc,omitempty"`
	Export   ExportFile `yaml:"export,omitempty"`
}

type ExportFile struct {
	Mode string   `yaml:"mode,omitempty"`
	OTLP OTLPFile `yaml:"otlp,omitempty"`
}

type OTLPFile struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	Insecure    *bool  `yaml:"insecure,omitempty"`
	Interval    string `yaml:"interval,omitempty"`
	ServiceName string `yaml:"service_name,omitempty"`
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Interval time.Duration
	// Sources restricts collection to the named sources.
	// Empty means every registered source.
	Sources  []snapshot.SourceType
	HostProc string
	Export   ExportConfig
}

type ExportConfig struct {
	Mode string
	OTLP OTLPConfig
}

type OTLPConfig struct {
	Endpoint    string
	Insecure    bool
	Interval    time.Duration
	ServiceName string
}

func Default() Config {
	return Config{
		Interval: DefaultInterval,
		HostProc: environment.GetHostPaths().Proc,
		Export: ExportConfig{
			Mode: DefaultExporter,
			OTLP: OTLPConfig{
				Endpoint:    DefaultOTLPEndpoint,
				Insecure:    true,
				Interval:    DefaultOTLPInterval,
				ServiceName: DefaultOTLPServiceName,
			},
		},
	}
}

// Load resolves the configuration from defaults, the YAML file at path,
// and the environment. An empty path skips the file layer; a missing or
// malformed file is an error so a bad deploy fails loudly instead of
// silently running on defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := cfg.applyFile(f); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f File) error {
	if f.Interval != "" {
		d, err := time.ParseDuration(f.Interval)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		c.Interval = d
	}
	if len(f.Sources) > 0 {
		c.Sources = c.Sources[:0]
		for _, s := range f.Sources {
			c.Sources = append(c.Sources, snapshot.SourceType(s))
		}
	}
	if f.HostProc != "" {
		c.HostProc = f.HostProc
	}
	if f.Export.Mode != "" {
		c.Export.Mode = f.Export.Mode
	}
	if f.Export.OTLP.Endpoint != "" {
		c.Export.OTLP.Endpoint = f.Export.OTLP.Endpoint
	}
	if f.Export.OTLP.Insecure != nil {
		c.Export.OTLP.Insecure = *f.Export.OTLP.Insecure
	}
	if f.Export.OTLP.Interval != "" {
		d, err := time.ParseDuration(f.Export.OTLP.Interval)
		if err != nil {
			return fmt.Errorf("export.otlp.interval: %w", err)
		}
		c.Export.OTLP.Interval = d
	}
	if f.Export.OTLP.ServiceName != "" {
		c.Export.OTLP.ServiceName = f.Export.OTLP.ServiceName
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sINTERVAL: %w", EnvPrefix, err)
		}
		c.Interval = d
	}
	if v := getEnv("HOST_PROC"); v != "" {
		c.HostProc = v
	}
	if v := getEnv("EXPORT_MODE"); v != "" {
		c.Export.Mode = v
	}
	if v := getEnv("OTLP_ENDPOINT"); v != "" {
		c.Export.OTLP.Endpoint = v
	}
	if v := getEnv("OTLP_INSECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sOTLP_INSECURE: %w", EnvPrefix, err)
		}
		c.Export.OTLP.Insecure = b
	}
	if v := getEnv("OTLP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sOTLP_INTERVAL: %w", EnvPrefix, err)
		}
		c.Export.OTLP.Interval = d
	}
	if v := getEnv("OTLP_SERVICE_NAME"); v != "" {
		c.Export.OTLP.ServiceName = v
	}
	return nil
}

func getEnv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	for _, s := range c.Sources {
		switch s {
		case snapshot.SourceTypeSysinfo, snapshot.SourceTypeLoadavg, snapshot.SourceTypeMeminfo:
		default:
			return fmt.Errorf("unknown source %q", s)
		}
	}
	switch c.Export.Mode {
	case ExporterDebug:
	case ExporterOTLP:
		if c.Export.OTLP.Endpoint == "" {
			return fmt.Errorf("export.otlp.endpoint is required when export mode is %q", ExporterOTLP)
		}
		if c.Export.OTLP.Interval <= 0 {
			return fmt.Errorf("export.otlp.interval must be positive, got %s", c.Export.OTLP.Interval)
		}
	default:
		return fmt.Errorf("unknown export mode %q (must be %q or %q)", c.Export.Mode, ExporterDebug, ExporterOTLP)
	}
	return nil
}

// Copy returns a Config whose Sources slice does not share backing storage
// with the receiver's.
func (c Config) Copy() Config {
	out := c
	if c.Sources != nil {
		out.Sources = append([]snapshot.SourceType(nil), c.Sources...)
	}
	return out
}

// CollectionConfig translates the agent configuration into collector settings.
func (c Config) CollectionConfig() snapshot.CollectionConfig {
	cc := snapshot.DefaultCollectionConfig()
	cc.Interval = c.Interval
	cc.HostProcPath = c.HostProc
	if len(c.Sources) > 0 {
		for src := range cc.EnabledSources {
			cc.EnabledSources[src] = false
		}
		for _, src := range c.Sources {
			cc.EnabledSources[src] = true
		}
	}
	return cc
}
