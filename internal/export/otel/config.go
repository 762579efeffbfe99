// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package otel

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CompressionType represents the compression type for OTLP exports
type CompressionType string

const (
	CompressionGZip CompressionType = "gzip" // GZIP compression
	CompressionNone CompressionType = "none" // No compression
)

// Common errors
var (
	ErrEndpointRequired       = fmt.Errorf("OTLP endpoint is required")
	ErrInvalidCompressionType = fmt.Errorf("compression type must be '%s' or '%s'", CompressionGZip, CompressionNone)
)

// String returns the string representation of the compression type
func (c CompressionType) String() string {
	return string(c)
}

// IsValid checks if the compression type is valid
func (c CompressionType) IsValid() bool {
	return c == CompressionGZip || c == CompressionNone
}

type Config struct {
	// OTLP gRPC configuration
	Endpoint string // OTLP gRPC endpoint (default: localhost:4317)
	Insecure bool   // Disable TLS (default: false)

	// Headers for gRPC metadata
	Headers map[string]string

	// Compression type for OTLP exports
	Compression CompressionType

	// Timeout for export operations
	Timeout time.Duration

	// ExportInterval is how often recorded gauges are pushed to the collector
	ExportInterval time.Duration

	// Resource attributes
	ServiceName    string // Service name (default: hoststats)
	ServiceVersion string // Service version
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:       "localhost:4317",
		Insecure:       false,
		Headers:        make(map[string]string),
		Compression:    CompressionGZip,
		Timeout:        30 * time.Second,
		ExportInterval: 30 * time.Second,
		ServiceName:    "hoststats",
		ServiceVersion: "",
	}
}

// ApplyEnvironmentVariables applies standard OTLP environment variables to
// the configuration. It follows the OpenTelemetry specification for
// environment variable names and precedence.
func (c *Config) ApplyEnvironmentVariables() {
	// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT or OTEL_EXPORTER_OTLP_ENDPOINT
	if endpoint := getEnvVar("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}

	// OTEL_EXPORTER_OTLP_METRICS_INSECURE or OTEL_EXPORTER_OTLP_INSECURE
	if insecure := getEnvVar("OTEL_EXPORTER_OTLP_METRICS_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE"); insecure != "" {
		if parsed, err := strconv.ParseBool(insecure); err == nil {
			c.Insecure = parsed
		}
	}

	// OTEL_EXPORTER_OTLP_METRICS_HEADERS or OTEL_EXPORTER_OTLP_HEADERS
	if headers := getEnvVar("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS"); headers != "" {
		c.Headers = parseHeaders(headers)
	}

	// OTEL_EXPORTER_OTLP_METRICS_COMPRESSION or OTEL_EXPORTER_OTLP_COMPRESSION
	if compression := getEnvVar("OTEL_EXPORTER_OTLP_METRICS_COMPRESSION", "OTEL_EXPORTER_OTLP_COMPRESSION"); compression != "" {
		compressionType := CompressionType(compression)
		if compressionType.IsValid() {
			c.Compression = compressionType
		}
	}

	// OTEL_EXPORTER_OTLP_METRICS_TIMEOUT or OTEL_EXPORTER_OTLP_TIMEOUT
	if timeout := getEnvVar("OTEL_EXPORTER_OTLP_METRICS_TIMEOUT", "OTEL_EXPORTER_OTLP_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil {
			c.Timeout = duration
		}
	}

	// OTEL_SERVICE_NAME
	if serviceName := os.Getenv("OTEL_SERVICE_NAME"); serviceName != "" {
		c.ServiceName = serviceName
	}

	// OTEL_SERVICE_VERSION
	if serviceVersion := os.Getenv("OTEL_SERVICE_VERSION"); serviceVersion != "" {
		c.ServiceVersion = serviceVersion
	}
}

// getEnvVar returns the first non-empty environment variable from the list
func getEnvVar(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// parseHeaders parses comma-separated key=value pairs into a map
func parseHeaders(headers string) map[string]string {
	result := make(map[string]string)
	pairs := strings.Split(headers, ",")

	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if key != "" {
				result[key] = value
			}
		}
	}

	return result
}

// Validate ensures the configuration is valid and sets reasonable defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrEndpointRequired
	}

	if c.Compression != "" && !c.Compression.IsValid() {
		return ErrInvalidCompressionType
	}
	if c.Compression == "" {
		c.Compression = CompressionGZip
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.ExportInterval <= 0 {
		c.ExportInterval = 30 * time.Second
	}

	if c.ServiceName == "" {
		c.ServiceName = "hoststats"
	}

	return nil
}

// GetConfigFromEnvironment builds a Config from environment variables
func GetConfigFromEnvironment() Config {
	config := DefaultConfig()
	config.ApplyEnvironmentVariables()
	return config
}
