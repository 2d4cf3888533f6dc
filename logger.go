package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global log instance. Tool traffic uses stdout, so all
// logging stays on stderr or the file sink. Discards until InitLogger runs.
var Logger = zerolog.New(io.Discard)

// LogConfig controls logging output.
type LogConfig struct {
	Level     string `yaml:"level"` // debug, info, warn, error
	Console   bool   `yaml:"console"`
	File      bool   `yaml:"file"`
	FilePath  string `yaml:"filePath"`
	MaxSizeMB int    `yaml:"maxSizeMB"`
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:     "info",
		Console:   true,
		File:      false,
		MaxSizeMB: 10,
	}
}

// InitLogger configures the global Logger from config.
func InitLogger(cfg LogConfig) error {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}
	if cfg.File && cfg.FilePath != "" {
		fw, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, fw)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// Component log helpers, used as LogDebug("search").Str(...).Msg(...).

func LogDebug(component string) *zerolog.Event {
	return Logger.Debug().Str("component", component)
}

func LogInfo(component string) *zerolog.Event {
	return Logger.Info().Str("component", component)
}

func LogWarn(component string) *zerolog.Event {
	return Logger.Warn().Str("component", component)
}

func LogError(component string) *zerolog.Event {
	return Logger.Error().Str("component", component)
}

// rotatingWriter is a size-capped file sink. When the file exceeds the cap
// it is renamed with a timestamp suffix and a fresh file is opened.
type rotatingWriter struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	file    *os.File
	size    int64
}

func newRotatingWriter(path string, maxSizeMB int) (*rotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	w := &rotatingWriter{path: path, maxSize: int64(maxSizeMB) * 1024 * 1024}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	w.file = file
	w.size = info.Size()
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize {
		w.file.Close()
		rotated := fmt.Sprintf("%s.%s", w.path, time.Now().Format("2006-01-02_15-04-05"))
		// If the rename fails the old file is simply reopened and keeps
		// growing; losing rotation beats losing the log.
		_ = os.Rename(w.path, rotated)
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}
