// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package otel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:4317", config.Endpoint)
	assert.False(t, config.Insecure)
	assert.Equal(t, CompressionGZip, config.Compression)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 30*time.Second, config.ExportInterval)
	assert.Equal(t, "hoststats", config.ServiceName)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name: "valid config",
			config: Config{
				Endpoint:       "localhost:4317",
				Compression:    CompressionGZip,
				Timeout:        10 * time.Second,
				ExportInterval: 15 * time.Second,
			},
		},
		{
			name:    "missing endpoint",
			config:  Config{},
			wantErr: ErrEndpointRequired,
		},
		{
			name: "invalid compression",
			config: Config{
				Endpoint:    "localhost:4317",
				Compression: "zstd",
			},
			wantErr: ErrInvalidCompressionType,
		},
		{
			name: "zero values get defaults",
			config: Config{
				Endpoint: "localhost:4317",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.config.Compression.IsValid())
			assert.Greater(t, tt.config.Timeout, time.Duration(0))
			assert.Greater(t, tt.config.ExportInterval, time.Duration(0))
			assert.NotEmpty(t, tt.config.ServiceName)
		})
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=secret, x-tenant=edge")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "5s")
	t.Setenv("OTEL_SERVICE_NAME", "hoststats-test")

	config := GetConfigFromEnvironment()

	assert.Equal(t, "collector:4317", config.Endpoint)
	assert.True(t, config.Insecure)
	assert.Equal(t, map[string]string{"x-api-key": "secret", "x-tenant": "edge"}, config.Headers)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, "hoststats-test", config.ServiceName)
}

func TestApplyEnvironmentVariables_MetricsSpecificWins(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "metrics:4317")

	config := GetConfigFromEnvironment()
	assert.Equal(t, "metrics:4317", config.Endpoint)
}

func TestParseHeaders_Malformed(t *testing.T) {
	headers := parseHeaders("good=1,noequals,=emptykey,trailing=")

	assert.Equal(t, map[string]string{"good": "1", "trailing": ""}, headers)
}
