package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hargabyte/cevents/internal/parser"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify scan defaults
	if !slices.Equal(cfg.Scan.Extensions, parser.SupportedExtensions()) {
		t.Errorf("expected default extensions %v, got %v", parser.SupportedExtensions(), cfg.Scan.Extensions)
	}
	for _, ext := range cfg.Scan.Extensions {
		if parser.LanguageFromExtension(ext) == "" {
			t.Errorf("default extension %s is not parseable", ext)
		}
	}

	if len(cfg.Scan.Exclude) != 4 {
		t.Errorf("expected 4 exclude patterns, got %d", len(cfg.Scan.Exclude))
	}

	if cfg.Scan.MaxFileSize != 1<<20 {
		t.Errorf("expected max_file_size 1MiB, got %d", cfg.Scan.MaxFileSize)
	}

	if cfg.Scan.IgnoreGitignore {
		t.Error("expected .gitignore to be respected by default")
	}

	// Verify output defaults
	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format yaml, got %s", cfg.Output.Format)
	}

	// Verify store defaults
	if cfg.Store.Path != ".cevents/events.db" {
		t.Errorf("expected store path .cevents/events.db, got %s", cfg.Store.Path)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"yaml", true},
		{"json", true},
		{"toml", false},
		{"", false},
		{"YAML", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			result := IsValidFormat(tt.format)
			if result != tt.valid {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.format, result, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid format",
			modify: func(c *Config) {
				c.Output.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "no extensions",
			modify: func(c *Config) {
				c.Scan.Extensions = nil
			},
			wantErr: true,
		},
		{
			name: "extension without dot",
			modify: func(c *Config) {
				c.Scan.Extensions = []string{"c"}
			},
			wantErr: true,
		},
		{
			name: "zero max_file_size",
			modify: func(c *Config) {
				c.Scan.MaxFileSize = 0
			},
			wantErr: true,
		},
		{
			name: "negative workers",
			modify: func(c *Config) {
				c.Scan.Workers = -1
			},
			wantErr: true,
		},
		{
			name: "empty store path",
			modify: func(c *Config) {
				c.Store.Path = ""
			},
			wantErr: true,
		},
		{
			name: "unknown tool",
			modify: func(c *Config) {
				c.Serve.Tools = []string{"c_events", "c_compile"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("empty loaded uses all defaults", func(t *testing.T) {
		loaded := &Config{}
		merged := Merge(loaded, defaults)

		if merged.Output.Format != defaults.Output.Format {
			t.Errorf("expected format %s, got %s", defaults.Output.Format, merged.Output.Format)
		}

		if merged.Scan.MaxFileSize != defaults.Scan.MaxFileSize {
			t.Errorf("expected max_file_size %d, got %d", defaults.Scan.MaxFileSize, merged.Scan.MaxFileSize)
		}

		if len(merged.Serve.Tools) != len(defaults.Serve.Tools) {
			t.Errorf("expected default tools, got %v", merged.Serve.Tools)
		}
	})

	t.Run("loaded values take precedence", func(t *testing.T) {
		loaded := &Config{
			Scan: ScanConfig{
				Extensions: []string{".c"},
				Workers:    4,
			},
			Output: OutputConfig{
				Format: "json",
			},
		}
		merged := Merge(loaded, defaults)

		if merged.Output.Format != "json" {
			t.Errorf("expected format json, got %s", merged.Output.Format)
		}

		if len(merged.Scan.Extensions) != 1 {
			t.Errorf("expected 1 extension, got %v", merged.Scan.Extensions)
		}

		if merged.Scan.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", merged.Scan.Workers)
		}

		// Unset values should use defaults
		if merged.Store.Path != defaults.Store.Path {
			t.Errorf("expected default store path %s, got %s", defaults.Store.Path, merged.Store.Path)
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cevents-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	// Create nested directories: tmpDir/project/subdir
	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		if err == nil {
			t.Error("expected error when no .cevents directory exists")
		}
	})

	configDir := filepath.Join(projectDir, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("project root is the parent of the config dir", func(t *testing.T) {
		if root := ProjectRoot(subDir); root != projectDir {
			t.Errorf("expected %s, got %s", projectDir, root)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cevents-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("creates config directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("config directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("returns existing directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}
	})
}

func TestLoadFromPath(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cevents-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
scan:
  extensions: [.c]
  exclude:
    - vendor/**
  workers: 2
output:
  format: json
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Scan.Extensions) != 1 {
			t.Errorf("expected 1 extension, got %d", len(cfg.Scan.Extensions))
		}
		if cfg.Scan.Workers != 2 {
			t.Errorf("expected 2 workers, got %d", cfg.Scan.Workers)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("expected format json, got %s", cfg.Output.Format)
		}

		// Check defaults were applied for missing values
		if cfg.Scan.MaxFileSize != 1<<20 {
			t.Errorf("expected default max_file_size, got %d", cfg.Scan.MaxFileSize)
		}
		if cfg.Store.Path != ".cevents/events.db" {
			t.Errorf("expected default store path, got %s", cfg.Store.Path)
		}
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format {
			t.Errorf("expected default format, got %s", cfg.Output.Format)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("invalid: yaml: content"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
output:
  format: xml
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if err == nil {
			t.Error("expected error for invalid format")
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cevents-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format {
			t.Errorf("expected default config")
		}
	})

	t.Run("loads config from .cevents directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}

		content := `
output:
  format: json
store:
  path: /var/tmp/events.db
`
		configPath := filepath.Join(configDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Output.Format != "json" {
			t.Errorf("expected format json, got %s", cfg.Output.Format)
		}
		if got := cfg.StorePath(tmpDir); got != "/var/tmp/events.db" {
			t.Errorf("absolute store path should be kept, got %s", got)
		}
	})
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.StorePath("/work/project")
	want := filepath.Join("/work/project", ".cevents", "events.db")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSaveDefault(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cevents-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedPath := filepath.Join(tmpDir, ConfigDirName, ConfigFileName)
		if configPath != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, configPath)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format {
			t.Errorf("saved config doesn't match defaults")
		}
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		_, err := SaveDefault(tmpDir)
		if err == nil {
			t.Error("expected error when config already exists")
		}
	})
}
