package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrQuotaExceeded is returned by a medium when a write would push the
// serialized state past the configured capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Medium is the raw key→string persistence the Store wraps. Values are
// opaque record strings; all envelope handling happens above this layer.
type Medium interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Keys() []string
}

// reloadable media can pick up state written by another process.
type reloadable interface {
	Reload() error
}

// FileMedium persists the key space as a single JSON object in one file,
// written atomically via a temp file rename. Single-writer, last write
// wins.
type FileMedium struct {
	mu    sync.Mutex
	path  string
	quota int
	state map[string]string
}

func OpenFileMedium(path string, quota int) (*FileMedium, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	m := &FileMedium{
		path:  path,
		quota: quota,
		state: make(map[string]string),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	// Probe writability up front so unavailability is detected at open
	// time rather than on the first user-visible write.
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FileMedium) load() error {
	b, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = make(map[string]string)
			return nil
		}
		return fmt.Errorf("read storage file: %w", err)
	}
	loaded := make(map[string]string)
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("parse storage file: %w", err)
	}
	m.state = loaded
	return nil
}

// save serializes the state and writes it atomically. Callers hold m.mu.
func (m *FileMedium) save() error {
	b, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage state: %w", err)
	}
	if m.quota > 0 && len(b) > m.quota {
		return ErrQuotaExceeded
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}

func (m *FileMedium) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *FileMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.state[key]
	m.state[key] = value
	if err := m.save(); err != nil {
		// Roll back so in-memory state matches what is on disk.
		if had {
			m.state[key] = prev
		} else {
			delete(m.state, key)
		}
		return err
	}
	return nil
}

func (m *FileMedium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.state[key]
	if !had {
		return nil
	}
	delete(m.state, key)
	if err := m.save(); err != nil {
		m.state[key] = prev
		return err
	}
	return nil
}

func (m *FileMedium) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.state))
	for k := range m.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reload re-reads the backing file, adopting writes made by other
// processes. In-process state written since the last save is already on
// disk, so a reload never loses local writes.
func (m *FileMedium) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// MemoryMedium is the fallback when the persistent medium is unavailable.
// State is lost when the process exits; the Store reports this degraded
// mode via Degraded().
type MemoryMedium struct {
	mu    sync.Mutex
	state map[string]string
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{state: make(map[string]string)}
}

func (m *MemoryMedium) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *MemoryMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = value
	return nil
}

func (m *MemoryMedium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

func (m *MemoryMedium) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.state))
	for k := range m.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
