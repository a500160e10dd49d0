package config

import (
	"slices"

	"github.com/hargabyte/cevents/internal/parser"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions: parser.SupportedExtensions(),
			Exclude: []string{
				"vendor/**",
				"build/**",
				"third_party/**",
				"**/testdata/**",
			},
			MaxFileSize: 1 << 20,
			Workers:     0,
		},
		Output: OutputConfig{
			Format: "yaml",
		},
		Store: StoreConfig{
			Path: ConfigDirName + "/events.db",
		},
		Serve: ServeConfig{
			Tools: []string{"c_events", "c_signatures", "c_check"},
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Store = mergeStoreConfig(loaded.Store, defaults.Store)
	result.Serve = mergeServeConfig(loaded.Serve, defaults.Serve)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.Extensions) > 0 {
		result.Extensions = loaded.Extensions
	} else {
		result.Extensions = defaults.Extensions
	}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	if loaded.MaxFileSize != 0 {
		result.MaxFileSize = loaded.MaxFileSize
	} else {
		result.MaxFileSize = defaults.MaxFileSize
	}

	// Zero workers means one per CPU, so there is nothing to merge.
	result.Workers = loaded.Workers

	// YAML unmarshals a missing bool as false, which is also the default.
	result.IgnoreGitignore = loaded.IgnoreGitignore

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.Format != "" {
		result.Format = loaded.Format
	} else {
		result.Format = defaults.Format
	}

	return result
}

func mergeStoreConfig(loaded, defaults StoreConfig) StoreConfig {
	result := StoreConfig{}

	if loaded.Path != "" {
		result.Path = loaded.Path
	} else {
		result.Path = defaults.Path
	}

	return result
}

func mergeServeConfig(loaded, defaults ServeConfig) ServeConfig {
	result := ServeConfig{}

	if len(loaded.Tools) > 0 {
		result.Tools = loaded.Tools
	} else {
		result.Tools = defaults.Tools
	}

	return result
}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"yaml", "json"}

// IsValidFormat checks if the given format value is valid
func IsValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// ValidTools lists the MCP tools the serve command can expose
var ValidTools = []string{"c_events", "c_signatures", "c_check", "c_history"}

// IsValidTool checks if the given tool name is known
func IsValidTool(tool string) bool {
	return slices.Contains(ValidTools, tool)
}
