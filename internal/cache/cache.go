package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Well-known keys shared by the stores.
const (
	KeyToken       = "token"
	KeyUser        = "user"
	KeyUserProfile = "userProfile"
	KeyCart        = "skillfinite-cart"
	KeyTheme       = "theme"
)

// NotificationsKey returns the key holding a user's notification list.
func NotificationsKey(userID string) string {
	return "notifications-" + userID
}

// Storage is a string key-value store that never fails loudly. Implementations
// log their own errors; callers only ever see present or absent values.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

var (
	_ Storage = (*File)(nil)
	_ Storage = (*Memory)(nil)
	_ Storage = Nop{}
)

// File persists entries as a TOML document on an afero filesystem. The file
// is read once on first access and rewritten after every mutation.
type File struct {
	fs   afero.Fs
	path string

	mu     sync.Mutex
	loaded bool
	values map[string]string
}

type document struct {
	Entries map[string]string `toml:"entries"`
}

// NewFile returns a File store backed by path on fs. A nil fs uses the OS filesystem.
func NewFile(fs afero.Fs, path string) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &File{fs: fs, path: path}
}

// Get returns the value stored under key.
func (f *File) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and flushes the file. A failed write keeps the
// value in memory for the rest of the process.
func (f *File) Set(key, value string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	f.values[key] = value
	if err := f.flushLocked(); err != nil {
		log.Printf("[cache] set %q: %v", key, err)
	}
}

// Remove deletes key and flushes the file.
func (f *File) Remove(key string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	if err := f.flushLocked(); err != nil {
		log.Printf("[cache] remove %q: %v", key, err)
	}
}

// Keys returns the stored keys in sorted order.
func (f *File) Keys() []string {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	return sortedKeys(f.values)
}

func (f *File) loadLocked() {
	if f.loaded {
		return
	}
	f.loaded = true
	f.values = make(map[string]string)

	bytes, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[cache] read %s: %v", f.path, err)
		}
		return
	}
	var doc document
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		log.Printf("[cache] parse %s: %v (starting empty)", f.path, err)
		return
	}
	for k, v := range doc.Entries {
		f.values[k] = v
	}
}

func (f *File) flushLocked() error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	bytes, err := toml.Marshal(document{Entries: f.values})
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, bytes, 0o600); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Memory is an in-process Storage.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.values)
}

// Nop models disabled storage: writes are dropped and reads miss.
type Nop struct{}

func (Nop) Get(string) (string, bool) { return "", false }
func (Nop) Set(string, string)        {}
func (Nop) Remove(string)             {}

// GetJSON decodes the JSON value stored under key. Missing or malformed
// values report false.
func GetJSON[T any](s Storage, key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return zero, false
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("[cache] drop malformed %q: %v", key, err)
		return zero, false
	}
	return out, true
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(s Storage, key string, v any) {
	if s == nil {
		return
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		log.Printf("[cache] encode %q: %v", key, err)
		return
	}
	s.Set(key, string(bytes))
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
