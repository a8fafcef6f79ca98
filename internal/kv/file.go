package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps the whole profile as one JSON object on disk and rewrites it on
// every change.
type FileBackend struct {
	mu       sync.RWMutex
	filePath string
	items    map[string]string
}

func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
			return nil, fmt.Errorf("initialize data file: %w", err)
		}
	}

	f := &FileBackend{filePath: path}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileBackend) load() error {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	items := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parse data file: %w", err)
		}
	}
	f.items = items
	return nil
}

// persist must be called with f.mu held for writing.
func (f *FileBackend) persist() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp := f.filePath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, f.filePath); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (f *FileBackend) Load(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	value, ok := f.items[key]
	return value, ok, nil
}

func (f *FileBackend) Save(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.items[key]
	f.items[key] = value
	if err := f.persist(); err != nil {
		if existed {
			f.items[key] = previous
		} else {
			delete(f.items, key)
		}
		return err
	}
	return nil
}

func (f *FileBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.items[key]
	if !existed {
		return nil
	}
	delete(f.items, key)
	if err := f.persist(); err != nil {
		f.items[key] = previous
		return err
	}
	return nil
}

func (f *FileBackend) Purge(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	previous := f.items
	f.items = make(map[string]string)
	if err := f.persist(); err != nil {
		f.items = previous
		return err
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}
