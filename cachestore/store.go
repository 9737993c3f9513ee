// Package cachestore persists raw Tally responses on disk.
//
// The store is a flat byte-addressable directory keyed by cache name.
// Writes happen only after a fresh successful exchange; reads happen only
// when the live exchange fails and a report falls back to its cached
// response.
package cachestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a directory-backed raw response store.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first
// write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk location for a cache name.
func (s *Store) Path(name string) string {
	// Cache names are derived from company names; keep them from
	// escaping the store directory.
	return filepath.Join(s.dir, filepath.Base(strings.TrimSpace(name)))
}

// Read returns the bytes stored under name.
func (s *Store) Read(name string) ([]byte, error) {
	if name == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("cachestore: empty cache name")
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("cachestore: reading %s: %w", name, err)
	}
	return data, nil
}

// Write stores data under name, replacing any previous content. The write
// goes through a temporary file so a crash never leaves a truncated cache
// entry behind.
func (s *Store) Write(name string, data []byte) error {
	if name == "" || strings.TrimSpace(name) == "" {
		return fmt.Errorf("cachestore: empty cache name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cachestore: creating %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("cachestore: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cachestore: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cachestore: closing %s: %w", name, err)
	}

	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cachestore: committing %s: %w", name, err)
	}
	return nil
}

// Remove deletes the entry stored under name, if any.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
