package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"Tether/mcp"
	"Tether/pkg/cache"
)

const appVersion = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	serial := flag.String("serial", "", "device serial, overrides config")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("tether", appVersion)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *serial != "" {
		cfg.DeviceSerial = *serial
	}

	InitLogger(cfg.Log)
	LogInfo("main").Str("version", appVersion).Str("serial", cfg.DeviceSerial).Msg("Tether starting")

	labels, err := cache.New(cache.Config{
		Dir: cfg.DataDir,
		LogFunc: func(format string, args ...interface{}) {
			LogDebug("cache").Msgf(format, args...)
		},
	})
	if err != nil {
		LogWarn("main").Err(err).Msg("Label cache unavailable, app names fall back to package names")
	}
	bridge := NewAdbBridge(cfg.AdbPath, cfg.DeviceSerial,
		time.Duration(cfg.Flow.DumpMinIntervalMs)*time.Millisecond, labels)

	store, err := NewWorkflowStore(cfg.WorkflowDir)
	if err != nil {
		LogError("main").Err(err).Msg("Failed to open workflow store")
		os.Exit(1)
	}
	presets := NewPresetStore(cfg.PresetsPath)

	app := NewApp(cfg, bridge, store, presets, appVersion)
	defer app.Close()

	server := mcp.NewMCPServer(app)
	if err := server.Start(); err != nil {
		LogError("main").Err(err).Msg("Tool server exited with error")
		os.Exit(1)
	}
}
