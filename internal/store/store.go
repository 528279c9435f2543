// Package store implements the sharded filesystem corpus layout. The
// filesystem is the database: every record lives at a path derived
// deterministically from its own identifier, so existence checks are the
// only index and replaying an input range is always safe.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Store abstracts the corpus tree behind existence, write, read, and list
// operations. Implementations must make Put idempotent with respect to
// Exists: a caller that checks-then-puts never overwrites prior output.
type Store interface {
	Exists(rel string) bool
	PutJSON(rel string, v any) error
	Touch(rel string) error
	ReadJSON(rel string, out any) error
	List(rel string) ([]string, error)
	Abs(rel string) string
}

// FS is a Store rooted at a directory.
type FS struct {
	root string
}

// NewFS returns a filesystem store rooted at root.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// Abs resolves a store-relative path to an absolute one.
func (s *FS) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Exists reports whether a file or directory exists at rel.
func (s *FS) Exists(rel string) bool {
	_, err := os.Stat(s.Abs(rel))
	return err == nil
}

// PutJSON writes v as indented JSON at rel, creating parent directories.
// Existing files are overwritten; callers enforce first-writer-wins via
// Exists before calling.
func (s *FS) PutJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	return s.putBytes(rel, append(data, '\n'))
}

// Touch creates an empty file at rel. Used for sentinel markers.
func (s *FS) Touch(rel string) error {
	return s.putBytes(rel, nil)
}

func (s *FS) putBytes(rel string, data []byte) error {
	abs := s.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}

// ReadJSON reads the JSON file at rel into out.
func (s *FS) ReadJSON(rel string, out any) error {
	data, err := os.ReadFile(s.Abs(rel))
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", rel, err)
	}
	return nil
}

// List returns the sorted entry names of the directory at rel. A missing
// directory yields an empty list, matching the resumption semantics of the
// rest of the store.
func (s *FS) List(rel string) ([]string, error) {
	entries, err := os.ReadDir(s.Abs(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", rel, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
