package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration, loaded from config.yaml when
// present and filled with defaults otherwise.
type Config struct {
	AdbPath      string `yaml:"adbPath"`
	DeviceSerial string `yaml:"deviceSerial"`
	DataDir      string `yaml:"dataDir"`
	WorkflowDir  string `yaml:"workflowDir"`
	PresetsPath  string `yaml:"presetsPath"`

	Log  LogConfig  `yaml:"log"`
	Flow FlowConfig `yaml:"flow"`
}

// FlowConfig tunes the automation flows. All durations are milliseconds in
// the YAML file.
type FlowConfig struct {
	PollIntervalMs     int `yaml:"pollIntervalMs"`
	ForegroundWaitMs   int `yaml:"foregroundWaitMs"`
	MaxSearchAttempts  int `yaml:"maxSearchAttempts"`
	MaxContactAttempts int `yaml:"maxContactAttempts"`
	MaxTypeAttempts    int `yaml:"maxTypeAttempts"`
	ComposeWaitMs      int `yaml:"composeWaitMs"`
	SnapshotMaxNodes   int `yaml:"snapshotMaxNodes"`
	DumpMinIntervalMs  int `yaml:"dumpMinIntervalMs"`

	DismissHints []string `yaml:"dismissHints"`
	InputHints   []string `yaml:"inputHints"`
	TriggerHints []string `yaml:"triggerHints"`
	SubmitHints  []string `yaml:"submitHints"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	dataDir := filepath.Join(configDir, "Tether")
	return Config{
		AdbPath: "adb",
		DataDir: dataDir,
		Log:     DefaultLogConfig(),
		Flow: FlowConfig{
			PollIntervalMs:     280,
			ForegroundWaitMs:   10000,
			MaxSearchAttempts:  8,
			MaxContactAttempts: 12,
			MaxTypeAttempts:    10,
			ComposeWaitMs:      6000,
			SnapshotMaxNodes:   120,
			DumpMinIntervalMs:  500,
			DismissHints:       []string{"close", "not now", "skip", "dismiss", "no thanks", "later", "cancel"},
			InputHints:         []string{"search", "search_input", "query", "find"},
			TriggerHints:       []string{"search", "magnifier", "lens"},
			SubmitHints:        []string{"search", "go", "enter", "done"},
		},
	}
}

// LoadConfig reads path and merges it over the defaults. A missing file is
// not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDerivedPaths()
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDerivedPaths()
	return cfg, nil
}

func (c *Config) applyDerivedPaths() {
	if c.WorkflowDir == "" {
		c.WorkflowDir = filepath.Join(c.DataDir, "workflows")
	}
	if c.PresetsPath == "" {
		c.PresetsPath = filepath.Join(c.DataDir, "presets.json")
	}
	if c.Log.FilePath == "" && c.Log.File {
		c.Log.FilePath = filepath.Join(c.DataDir, "logs", "tether.log")
	}
}

// PollInterval returns the configured poll interval as a duration.
func (f FlowConfig) PollInterval() time.Duration {
	if f.PollIntervalMs <= 0 {
		return 280 * time.Millisecond
	}
	return time.Duration(f.PollIntervalMs) * time.Millisecond
}

// ForegroundWait returns the foreground wait budget as a duration.
func (f FlowConfig) ForegroundWait() time.Duration {
	if f.ForegroundWaitMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(f.ForegroundWaitMs) * time.Millisecond
}

// ComposeWait returns the compose-field wait budget as a duration.
func (f FlowConfig) ComposeWait() time.Duration {
	if f.ComposeWaitMs <= 0 {
		return 6 * time.Second
	}
	return time.Duration(f.ComposeWaitMs) * time.Millisecond
}
