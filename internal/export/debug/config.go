// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package debug

import "fmt"

// LogFormat determines the output format
type LogFormat string

const (
	LogFormatJSON LogFormat = "json" // structured JSON output
	LogFormatText LogFormat = "text" // human-readable key/value output
)

var ErrInvalidLogFormat = fmt.Errorf("log format must be '%s' or '%s'", LogFormatJSON, LogFormatText)

// String returns the string representation of the log format
func (f LogFormat) String() string {
	return string(f)
}

// IsValid checks if the log format is valid
func (f LogFormat) IsValid() bool {
	return f == LogFormatJSON || f == LogFormatText
}

type Config struct {
	// LogFormat determines the output format
	LogFormat LogFormat

	// IncludeRunInfo also logs per-collector status and timing
	IncludeRunInfo bool

	// SourceFilter only logs stats from these sources (empty = all)
	SourceFilter []string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		LogFormat:      LogFormatText,
		IncludeRunInfo: false,
		SourceFilter:   []string{},
	}
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if !c.LogFormat.IsValid() {
		return ErrInvalidLogFormat
	}
	return nil
}

func (c *Config) ShouldLogSource(source string) bool {
	if len(c.SourceFilter) == 0 {
		return true
	}

	for _, filter := range c.SourceFilter {
		if filter == source {
			return true
		}
	}
	return false
}
