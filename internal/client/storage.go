package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is durable key/value space on the client side, the equivalent of a
// browser's local storage. Missing keys are simply absent from Load's result.
type Storage interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// FileStorage keeps all keys in one JSON object. Every write replaces the file
// through a rename, so readers see either the old or the new content.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *FileStorage) Save(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		all[k] = v
	}
	return f.write(all)
}

func (f *FileStorage) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(all, k)
	}
	return f.write(all)
}

func (f *FileStorage) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	all := make(map[string]string)
	if len(b) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return all, nil
}

func (f *FileStorage) write(all map[string]string) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
