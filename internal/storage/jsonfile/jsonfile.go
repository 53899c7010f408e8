// Package jsonfile provides a storage.Store persisted as a single JSON document,
// the members.json layout the site has always used.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/memory"
)

// Ensure JSONStore implements storage.Store
var _ storage.Store = (*JSONStore)(nil)

// JSONStore keeps records in memory and rewrites the whole file after every change.
type JSONStore struct {
	*memory.Store
	path string
}

// New opens the JSON file at path, creating parent directories as needed.
// A missing file starts an empty store. Both the full document form and a bare
// array of members are accepted on read; writes always use the document form.
func New(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	snap, err := load(path)
	if err != nil {
		return nil, err
	}

	s := &JSONStore{
		Store: memory.NewFromSnapshot(snap),
		path:  path,
	}
	s.Store.OnChange(s.flushLocked)
	return s, nil
}

// Path returns the file backing the store.
func (s *JSONStore) Path() string {
	return s.path
}

func load(path string) (memory.Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return memory.Snapshot{}, nil
	}
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return memory.Snapshot{}, nil
	}

	if data[0] == '[' {
		var members []*models.Member
		if err := json.Unmarshal(data, &members); err != nil {
			return memory.Snapshot{}, fmt.Errorf("failed to decode member list %s: %w", path, err)
		}
		for _, m := range members {
			storage.PrepareMember(m)
		}
		return memory.Snapshot{Members: members}, nil
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return memory.Snapshot{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return snap, nil
}

// flushLocked writes the snapshot to a temp file and renames it over the target,
// so readers never observe a partially written document.
func (s *JSONStore) flushLocked() error {
	data, err := json.MarshalIndent(s.Store.SnapshotLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".members-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
