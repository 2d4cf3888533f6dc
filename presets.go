package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// PresetStore resolves short aliases ("mom", "wa") to full contact or app
// entries from a presets.json file. The file is read per resolution so
// edits apply immediately; preset files are tiny.
//
// Layout:
//
//	{
//	  "contacts": {"mom": {"name": "Maria Musterfrau", "phone": "+4915112345678"}},
//	  "apps": {"wa": "com.whatsapp"}
//	}
type PresetStore struct {
	path string
}

// NewPresetStore creates a store for the given path. The file may not
// exist yet; resolution then reports no match.
func NewPresetStore(path string) *PresetStore {
	return &PresetStore{path: path}
}

// Resolve looks up an alias under the given kind ("contacts" or "apps")
// and returns the entry as JSON text. Aliases are matched case-insensitively.
func (p *PresetStore) Resolve(kind, alias string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "contacts" && kind != "apps" {
		return "", fmt.Errorf("unknown preset kind %q (want contacts or apps)", kind)
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return "", fmt.Errorf("alias must not be empty")
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no presets configured")
		}
		return "", fmt.Errorf("failed to read presets: %w", err)
	}

	section := gjson.GetBytes(data, kind)
	if !section.IsObject() {
		return "", fmt.Errorf("no %s presets configured", kind)
	}

	var found gjson.Result
	section.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), alias) {
			found = value
			return false
		}
		return true
	})
	if !found.Exists() {
		return "", fmt.Errorf("no %s preset named %q", strings.TrimSuffix(kind, "s"), alias)
	}
	return found.Raw, nil
}
