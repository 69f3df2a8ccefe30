// Package prefs persists which request-table columns are visible. Reads and
// writes never fail: problems are logged at debug level and defaults are used.
package prefs

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"diligence-tracker/internal/logger"
)

// Key is the entry of the preferences file holding column visibility.
const Key = "dd-tracker.columns"

// Columns lists every known column in display order.
var Columns = []string{
	"title",
	"category",
	"subcategory",
	"status",
	"priority",
	"assignees",
	"reviewers",
	"due_date",
	"last_activity_at",
}

var hiddenByDefault = []string{"subcategory", "reviewers", "last_activity_at"}

// Defaults returns the visibility used when nothing is stored.
func Defaults() map[string]bool {
	out := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		out[c] = !slices.Contains(hiddenByDefault, c)
	}
	return out
}

// Store keeps preferences in a YAML file. Other top-level keys in the file
// are preserved on write.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Columns returns the stored visibility merged over Defaults.
func (s *Store) Columns() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return merge(Defaults(), s.read()[Key])
}

// SetColumns stores the visibility of known columns and returns the
// resulting set. Unknown column names are ignored.
func (s *Store) SetColumns(cols map[string]bool) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	current := merge(Defaults(), doc[Key])
	for name, visible := range cols {
		if slices.Contains(Columns, name) {
			current[name] = visible
		}
	}
	stored := make(map[string]any, len(current))
	for k, v := range current {
		stored[k] = v
	}
	doc[Key] = stored
	s.write(doc)
	return current
}

func (s *Store) read() map[string]any {
	doc := map[string]any{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("read preferences %s: %v", s.path, err)
		}
		return doc
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		logger.Debug("parse preferences %s: %v", s.path, err)
		return map[string]any{}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}

func (s *Store) write(doc map[string]any) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		logger.Debug("encode preferences: %v", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Debug("create preferences dir %s: %v", dir, err)
			return
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		logger.Debug("write preferences %s: %v", s.path, err)
	}
}

func merge(base map[string]bool, stored any) map[string]bool {
	m, ok := stored.(map[string]any)
	if !ok {
		return base
	}
	for name, v := range m {
		if b, ok := v.(bool); ok && slices.Contains(Columns, name) {
			base[name] = b
		}
	}
	return base
}
