// Package idmap assigns dense integer IDs to strings (terms or document
// names) and maps them back. IDs start at 0 and grow by one per new string,
// so documents indexed in order produce ascending postings.
package idmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Map struct {
	mu    sync.RWMutex
	ids   map[string]uint64
	names []string
}

func New() *Map {
	return &Map{ids: make(map[string]uint64)}
}

// ID returns the ID for s, assigning the next free one if s is new.
func (m *Map) ID(s string) uint64 {
	m.mu.RLock()
	id, ok := m.ids[s]
	m.mu.RUnlock()
	if ok {
		return id
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[s]; ok {
		return id
	}
	id = uint64(len(m.names))
	m.ids[s] = id
	m.names = append(m.names, s)
	return id
}

// Lookup returns the ID for s without assigning one.
func (m *Map) Lookup(s string) (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[s]
	return id, ok
}

func (m *Map) Name(id uint64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id >= uint64(len(m.names)) {
		return "", false
	}
	return m.names[id], true
}

func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// MarshalJSON encodes the map as its ID-ordered list of names.
func (m *Map) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.names)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	ids := make(map[string]uint64, len(names))
	for i, name := range names {
		if _, dup := ids[name]; dup {
			return fmt.Errorf("duplicate name %q at id %d", name, i)
		}
		ids[name] = uint64(i)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = ids
	m.names = names
	return nil
}

// Save writes the map to path atomically via a temporary file.
func (m *Map) Save(path string) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling id map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating id map directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing id map: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming id map: %w", err)
	}
	return nil
}

// Load reads a map saved by Save. A missing file yields an empty map.
func Load(path string) (*Map, error) {
	m := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading id map: %w", err)
	}
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parsing id map %s: %w", path, err)
	}
	return m, nil
}
