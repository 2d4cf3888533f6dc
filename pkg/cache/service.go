// Package cache persists small lookup tables for the device bridge, chiefly
// the package-name to display-label map so app listings do not re-query the
// device for every resolution call.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Service manages the label cache file. Entries expire after TTL so renamed
// or updated apps are re-read eventually.
type Service struct {
	mu       sync.RWMutex
	path     string
	ttl      time.Duration
	labels   map[string]entry
	logFunc  func(format string, args ...interface{})
	modified bool
}

type entry struct {
	Label    string `json:"label"`
	StoredAt int64  `json:"storedAt"`
}

// Config for creating a cache Service.
type Config struct {
	Dir     string
	TTL     time.Duration
	LogFunc func(format string, args ...interface{})
}

// New creates a Service and loads any existing cache file. A missing or
// corrupt file starts an empty cache rather than failing.
func New(cfg Config) (*Service, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}
	s := &Service{
		path:    filepath.Join(cfg.Dir, "app_labels.json"),
		ttl:     cfg.TTL,
		labels:  make(map[string]entry),
		logFunc: cfg.LogFunc,
	}
	s.load()
	return s, nil
}

func (s *Service) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var stored map[string]entry
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logf("label cache unreadable, starting empty: %v", err)
		return
	}
	s.labels = stored
}

// Label returns the cached display label for a package, or "" when unknown
// or expired.
func (s *Service) Label(pkg string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.labels[pkg]
	if !ok {
		return ""
	}
	if time.Since(time.Unix(e.StoredAt, 0)) > s.ttl {
		return ""
	}
	return e.Label
}

// SetLabel stores a display label for a package.
func (s *Service) SetLabel(pkg, label string) {
	if pkg == "" || label == "" {
		return
	}
	s.mu.Lock()
	s.labels[pkg] = entry{Label: label, StoredAt: time.Now().Unix()}
	s.modified = true
	s.mu.Unlock()
}

// Flush writes the cache to disk when it changed since the last flush.
func (s *Service) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modified {
		return nil
	}
	data, err := json.MarshalIndent(s.labels, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return err
	}
	s.modified = false
	return nil
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.logFunc != nil {
		s.logFunc(format, args...)
	}
}
