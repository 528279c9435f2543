// Package ledger implements the append-only progress logs that make
// multi-day corpus jobs resumable. A ledger is a plain-text file with one
// identifier per line, loaded into memory on open and appended to as work
// completes. Replaying an input range against a loaded ledger produces no
// duplicate entries.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is an append-only set of identifiers backed by a text file.
// It is not safe for concurrent use; job instances own disjoint ledger
// files instead of sharing one.
type Ledger struct {
	path string
	ids  map[string]struct{}
	f    *os.File
}

// Open loads the ledger at path, creating it (and parent directories) if
// absent, and keeps it open for appends.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	ids, err := ReadSet(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger for append: %w", err)
	}

	return &Ledger{path: path, ids: ids, f: f}, nil
}

// ReadSet reads a ledger file into a set without opening it for append.
// A missing file yields an empty set.
func ReadSet(path string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return ids, nil
}

// Contains reports whether id has already been recorded.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Add records id, appending it to the backing file. Adding an ID that is
// already present is a no-op: ledger entries are write-once.
func (l *Ledger) Add(id string) error {
	if l.Contains(id) {
		return nil
	}
	if _, err := l.f.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("appending to ledger: %w", err)
	}
	l.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded identifiers.
func (l *Ledger) Len() int { return len(l.ids) }

// Path returns the backing file path.
func (l *Ledger) Path() string { return l.path }

// Close closes the backing file.
func (l *Ledger) Close() error { return l.f.Close() }
