package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Pather is implemented by backends that live in a single file.
type Pather interface {
	Path() string
}

// Open returns the backend of the given kind rooted at path. Backends that hold
// resources also implement io.Closer.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		return NewFileBackend(path)
	case KindSQLite:
		return NewSQLiteBackend(path)
	case KindMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown annotations backend %q", kind)
}

// Close releases b if it holds resources.
func Close(b Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MemoryBackend keeps blobs in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string]string)}
}

func (m *MemoryBackend) Get(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[name]
	return v, ok, nil
}

func (m *MemoryBackend) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = value
	return nil
}

// FileBackend stores all blobs in one JSON document. The file is re-read on
// every Get so writes from other processes are picked up.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) (*FileBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("annotations file path is required")
	}
	return &FileBackend{path: path}, nil
}

func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Get(name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blobs, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := blobs[name]
	return v, ok, nil
}

func (f *FileBackend) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blobs, err := f.load()
	if err != nil {
		// A corrupt document is replaced rather than blocking every write.
		blobs = make(map[string]string)
	}
	blobs[name] = value

	data, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	blobs := make(map[string]string)
	if len(strings.TrimSpace(string(data))) == 0 {
		return blobs, nil
	}
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return blobs, nil
}
