// Package config loads DeviceMesh configuration with layered precedence:
// built-in defaults, then an optional YAML file, then DEVICEMESH_ environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root configuration document.
type Config struct {
	Target  TargetConfig  `koanf:"target"`
	Events  EventsConfig  `koanf:"events"`
	Logging LoggingConfig `koanf:"logging"`
	Relay   RelayConfig   `koanf:"relay"`
	Record  RecordConfig  `koanf:"record"`
	Test    TestConfig    `koanf:"test"`
}

// TargetConfig selects the device actions run against.
type TargetConfig struct {
	UDID string `koanf:"udid"`
	Name string `koanf:"name"`
	// LogDir overrides the directory scanned for diagnostics.
	LogDir string `koanf:"log_dir"`
}

// EventsConfig controls the event stream surface.
type EventsConfig struct {
	// Format is "json" (one event per line on stdout) or "log" (forward to
	// the operational logger).
	Format string `koanf:"format"`
}

// LoggingConfig controls operational logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or text
}

// RelayConfig controls the HTTP relay surface.
type RelayConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

// RecordConfig controls video recording defaults.
type RecordConfig struct {
	// OutputDir receives recordings started without an explicit path.
	OutputDir string `koanf:"output_dir"`
}

// TestConfig controls test execution defaults.
type TestConfig struct {
	// TimeoutSeconds bounds how long a test launch waits for completion.
	// Zero means fire-and-forget.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// DefaultConfig returns the built-in configuration layer.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"target": map[string]interface{}{
			"udid":    "",
			"name":    "",
			"log_dir": "",
		},
		"events": map[string]interface{}{
			"format": "json",
		},
		"logging": map[string]interface{}{
			"level":  "info",
			"format": "json",
		},
		"relay": map[string]interface{}{
			"enabled": false,
			"listen":  "127.0.0.1:8787",
		},
		"record": map[string]interface{}{
			"output_dir": "",
		},
		"test": map[string]interface{}{
			"timeout_seconds": 0,
		},
	}
}

// NewDefaultProvider returns the confmap provider for the default layer.
func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

// DefaultConfigPath is where Load looks for a config file when none is given.
func DefaultConfigPath() string {
	return "~/.devicemesh/config.yaml"
}

// Load reads the configuration from defaults, the YAML file at configPath
// (skipped when absent) and DEVICEMESH_ environment variables, in that
// order of increasing precedence. Environment keys use underscores for
// nesting: DEVICEMESH_TARGET_UDID sets target.udid.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	configPath = expandPath(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("DEVICEMESH_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "DEVICEMESH_")
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Record.OutputDir = expandPath(cfg.Record.OutputDir)
	cfg.Target.LogDir = expandPath(cfg.Target.LogDir)

	return &cfg, nil
}

func expandPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
