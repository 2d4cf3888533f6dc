package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"Tether/pkg/types"
)

// workflowSchema validates workflow documents on save and load so a broken
// definition is rejected before a run ever starts.
const workflowSchema = `{
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "timeoutMs": {"type": "integer", "minimum": 0},
    "continueOnError": {"type": "boolean"},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"enum": ["launch_app", "search", "tap", "wait", "swipe", "type"]},
          "onError": {"enum": ["stop", "continue"]}
        }
      }
    }
  }
}`

var workflowFilenamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// WorkflowStore keeps workflow definitions as JSON files in one directory
// and mirrors them in memory. A watcher reloads the index when files change
// on disk, so definitions edited by hand are picked up without a restart.
type WorkflowStore struct {
	dir     string
	schema  *jsonschema.Schema
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	workflows map[string]types.Workflow

	done chan struct{}
}

// NewWorkflowStore loads the directory and starts the file watcher.
func NewWorkflowStore(dir string) (*WorkflowStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workflow directory: %w", err)
	}
	schema, err := jsonschema.CompileString("workflow.schema.json", workflowSchema)
	if err != nil {
		return nil, fmt.Errorf("workflow schema invalid: %w", err)
	}

	s := &WorkflowStore{
		dir:       dir,
		schema:    schema,
		workflows: make(map[string]types.Workflow),
		done:      make(chan struct{}),
	}
	s.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		LogWarn("workflow").Err(err).Msg("Workflow watcher unavailable, definitions load once")
	} else if err := watcher.Add(dir); err != nil {
		LogWarn("workflow").Err(err).Msg("Failed to watch workflow directory")
		watcher.Close()
	} else {
		s.watcher = watcher
		go s.watch()
	}
	return s, nil
}

// Close stops the watcher.
func (s *WorkflowStore) Close() {
	close(s.done)
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *WorkflowStore) watch() {
	// Editors fire bursts of events per save; debounce with a short timer.
	var pending *time.Timer
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, s.reload)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			LogWarn("workflow").Err(err).Msg("Workflow watcher error")
		}
	}
}

func (s *WorkflowStore) reload() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		LogWarn("workflow").Err(err).Msg("Failed to read workflow directory")
		return
	}

	loaded := make(map[string]types.Workflow)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		wf, err := s.readWorkflowFile(path)
		if err != nil {
			LogWarn("workflow").Str("file", entry.Name()).Err(err).Msg("Skipping invalid workflow file")
			continue
		}
		loaded[wf.ID] = wf
	}

	s.mu.Lock()
	s.workflows = loaded
	s.mu.Unlock()
	LogDebug("workflow").Int("count", len(loaded)).Msg("Workflow index reloaded")
}

func (s *WorkflowStore) readWorkflowFile(path string) (types.Workflow, error) {
	var wf types.Workflow
	data, err := os.ReadFile(path)
	if err != nil {
		return wf, err
	}
	if err := s.validate(data); err != nil {
		return wf, err
	}
	if err := json.Unmarshal(data, &wf); err != nil {
		return wf, err
	}
	if wf.ID == "" {
		wf.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return wf, nil
}

func (s *WorkflowStore) validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// List returns all workflows sorted by name.
func (s *WorkflowStore) List() []types.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]types.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		list = append(list, wf)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Get returns a workflow by id.
func (s *WorkflowStore) Get(id string) (types.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	return wf, ok
}

// Save validates and persists a workflow, assigning an id when missing.
func (s *WorkflowStore) Save(wf types.Workflow) (types.Workflow, error) {
	if wf.ID == "" {
		wf.ID = uuid.NewString()
		wf.CreatedAt = time.Now().Format(time.RFC3339)
	}
	wf.UpdatedAt = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return wf, fmt.Errorf("failed to marshal workflow: %w", err)
	}
	if err := s.validate(data); err != nil {
		return wf, err
	}

	path := filepath.Join(s.dir, s.filename(wf.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return wf, fmt.Errorf("failed to write workflow file: %w", err)
	}

	s.mu.Lock()
	s.workflows[wf.ID] = wf
	s.mu.Unlock()
	return wf, nil
}

// Delete removes a workflow by id.
func (s *WorkflowStore) Delete(id string) error {
	path := filepath.Join(s.dir, s.filename(id))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("workflow not found")
		}
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	s.mu.Lock()
	delete(s.workflows, id)
	s.mu.Unlock()
	return nil
}

func (s *WorkflowStore) filename(id string) string {
	safe := workflowFilenamePattern.ReplaceAllString(id, "_")
	if safe == "" {
		safe = fmt.Sprintf("wf_%d", time.Now().Unix())
	}
	return safe + ".json"
}
