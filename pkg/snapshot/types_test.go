// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package snapshot_test

import (
	"testing"
	"time"

	"github.com/antimetal/hoststats/pkg/snapshot"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCollectionConfig(t *testing.T) {
	config := snapshot.DefaultCollectionConfig()

	assert.Equal(t, time.Second, config.Interval)
	assert.Equal(t, "/proc", config.HostProcPath)
	assert.True(t, config.EnabledSources[snapshot.SourceTypeSysinfo])
	assert.True(t, config.EnabledSources[snapshot.SourceTypeLoadavg])
	assert.True(t, config.EnabledSources[snapshot.SourceTypeMeminfo])
}

func TestApplyDefaults(t *testing.T) {
	t.Run("zero config gets defaults", func(t *testing.T) {
		var config snapshot.CollectionConfig
		config.ApplyDefaults()

		assert.Equal(t, time.Second, config.Interval)
		assert.Equal(t, "/proc", config.HostProcPath)
		assert.NotEmpty(t, config.EnabledSources)
	})

	t.Run("set values survive", func(t *testing.T) {
		config := snapshot.CollectionConfig{
			Interval:     5 * time.Second,
			HostProcPath: "/host/proc",
			EnabledSources: map[snapshot.SourceType]bool{
				snapshot.SourceTypeSysinfo: true,
			},
		}
		config.ApplyDefaults()

		assert.Equal(t, 5*time.Second, config.Interval)
		assert.Equal(t, "/host/proc", config.HostProcPath)
		assert.Len(t, config.EnabledSources, 1)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  snapshot.CollectionConfig
		opts    snapshot.ValidateOptions
		wantErr string
	}{
		{
			name:   "absolute path passes",
			config: snapshot.CollectionConfig{HostProcPath: "/proc"},
			opts:   snapshot.ValidateOptions{RequireHostProcPath: true},
		},
		{
			name:    "empty required path fails",
			config:  snapshot.CollectionConfig{},
			opts:    snapshot.ValidateOptions{RequireHostProcPath: true},
			wantErr: "required but not provided",
		},
		{
			name:   "empty optional path passes",
			config: snapshot.CollectionConfig{},
			opts:   snapshot.ValidateOptions{},
		},
		{
			name:    "relative path always fails",
			config:  snapshot.CollectionConfig{HostProcPath: "proc"},
			opts:    snapshot.ValidateOptions{},
			wantErr: "must be an absolute path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.opts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
